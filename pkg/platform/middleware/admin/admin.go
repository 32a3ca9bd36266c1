package admin

import (
	"log/slog"
	"net/http"
	"strings"

	"docverify/pkg/requestcontext"
)

// TokenValidator validates an admin bearer token and returns its subject.
type TokenValidator interface {
	ValidateAdminToken(token string) (subject string, err error)
}

// RequireAdmin rejects requests without a valid "Authorization: Bearer <token>" admin token.
// On success the token subject is stored in the request context.
func RequireAdmin(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			subject, err := validator.ValidateAdminToken(token)
			if err != nil {
				logger.WarnContext(ctx, "admin token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				unauthorized(w)
				return
			}

			ctx = requestcontext.WithAdminSubject(ctx, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
}
