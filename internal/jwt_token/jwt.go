package jwttoken

import (
	"errors"
	"time"

	dErrors "docverify/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin is the only role accepted by the admin API.
const RoleAdmin = "admin"

// Claims represents the JWT claims carried by admin tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService issues and validates HS256 admin tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateAdminToken signs a token for subject valid for expiresIn.
func (s *JWTService) GenerateAdminToken(subject string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	return newToken.SignedString(s.signingKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ValidateAdminToken satisfies the admin middleware: the token must be valid
// and carry the admin role.
func (s *JWTService) ValidateAdminToken(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Role != RoleAdmin {
		return "", dErrors.New(dErrors.CodeForbidden, "token lacks admin role")
	}
	return claims.Subject, nil
}
