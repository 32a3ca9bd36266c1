package jwttoken

import (
	"testing"
	"time"

	dErrors "docverify/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)

func Test_GenerateAdminToken(t *testing.T) {
	token, err := jwtService.GenerateAdminToken("ops@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateAdminToken("ops@example.com", -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("other-key", "test-issuer", "test-audience")
	token, err := other.GenerateAdminToken("ops@example.com", time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongAudience(t *testing.T) {
	other := NewJWTService("test-signing-key", "test-issuer", "someone-else")
	token, err := other.GenerateAdminToken("ops@example.com", time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.Error(t, err)
}

func Test_ValidateAdminToken(t *testing.T) {
	t.Run("returns subject for admin token", func(t *testing.T) {
		token, err := jwtService.GenerateAdminToken("ops@example.com", time.Hour)
		require.NoError(t, err)

		subject, err := jwtService.ValidateAdminToken(token)
		require.NoError(t, err)
		assert.Equal(t, "ops@example.com", subject)
	})

	t.Run("rejects token without admin role", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			Role: "viewer",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "viewer@example.com",
				Issuer:    "test-issuer",
				Audience:  []string{"test-audience"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := token.SignedString([]byte("test-signing-key"))
		require.NoError(t, err)

		_, err = jwtService.ValidateAdminToken(signed)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
