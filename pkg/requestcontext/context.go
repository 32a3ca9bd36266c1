// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets the values; services and adapters read them without importing net/http.
//
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.1", "curl/8.0")
package requestcontext

import (
	"context"
	"time"
)

type (
	clientIPKey     struct{}
	userAgentKey    struct{}
	requestIDKey    struct{}
	requestTimeKey  struct{}
	adminSubjectKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyClientIP     = clientIPKey{}
	ContextKeyUserAgent    = userAgentKey{}
	ContextKeyRequestID    = requestIDKey{}
	ContextKeyRequestTime  = requestTimeKey{}
	ContextKeyAdminSubject = adminSubjectKey{}
)

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// AdminSubject retrieves the authenticated admin subject, set by the admin middleware.
func AdminSubject(ctx context.Context) string {
	if sub, ok := ctx.Value(ContextKeyAdminSubject).(string); ok {
		return sub
	}
	return ""
}

// WithAdminSubject injects the authenticated admin subject into the context.
func WithAdminSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ContextKeyAdminSubject, subject)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
