package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"docverify/pkg/requestcontext"
)

type stubValidator struct {
	valid   string
	subject string
}

func (v stubValidator) ValidateAdminToken(token string) (string, error) {
	if token != v.valid {
		return "", errors.New("invalid token")
	}
	return v.subject, nil
}

// AdminMiddlewareSuite covers the invariant that a missing or wrong token never reaches the handler.
type AdminMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestAdminMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AdminMiddlewareSuite))
}

func (s *AdminMiddlewareSuite) SetupTest() {
	s.logger = slog.Default()
}

func (s *AdminMiddlewareSuite) serve(header string) (called bool, subject string, code int) {
	handler := RequireAdmin(stubValidator{valid: "good-token", subject: "ops@example.com"}, s.logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			subject = requestcontext.AdminSubject(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)
	req := httptest.NewRequest(http.MethodGet, "/admin/verifications", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return called, subject, w.Code
}

func (s *AdminMiddlewareSuite) TestTokenValidation() {
	s.Run("valid bearer token passes with subject", func() {
		called, subject, code := s.serve("Bearer good-token")
		s.True(called)
		s.Equal("ops@example.com", subject)
		s.Equal(http.StatusOK, code)
	})

	s.Run("scheme is case-insensitive", func() {
		called, _, _ := s.serve("bearer good-token")
		s.True(called)
	})

	s.Run("wrong token is rejected", func() {
		called, _, code := s.serve("Bearer bad-token")
		s.False(called)
		s.Equal(http.StatusUnauthorized, code)
	})

	s.Run("missing header is rejected", func() {
		called, _, code := s.serve("")
		s.False(called)
		s.Equal(http.StatusUnauthorized, code)
	})

	s.Run("non-bearer scheme is rejected", func() {
		called, _, code := s.serve("Basic Zm9vOmJhcg==")
		s.False(called)
		s.Equal(http.StatusUnauthorized, code)
	})
}
