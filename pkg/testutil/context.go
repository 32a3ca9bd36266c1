package testutil

import (
	"net/http"

	"docverify/pkg/requestcontext"
)

// WithRequestID adds a request ID to the request context, as the RequestID middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithAdmin marks the request as authenticated by the admin middleware.
func WithAdmin(req *http.Request, subject string) *http.Request {
	return req.WithContext(requestcontext.WithAdminSubject(req.Context(), subject))
}
