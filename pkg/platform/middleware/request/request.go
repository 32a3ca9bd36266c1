package request

import (
	"log/slog"
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"docverify/pkg/platform/privacy"
	"docverify/pkg/requestcontext"

	"github.com/google/uuid"
)

// MaxRequestIDLength is the maximum allowed length for X-Request-ID header.
const MaxRequestIDLength = 128

// validRequestID matches alphanumeric characters, dashes, underscores, and periods.
var validRequestID = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Recovery recovers from panics and returns a 500 error, preventing server crashes.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					ctx := r.Context()
					logger.ErrorContext(ctx, "panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
						"method", r.Method,
						"request_id", requestcontext.RequestID(ctx),
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID adds a unique request ID to the context and response headers.
// A valid client-provided X-Request-ID is reused; anything else is replaced with a UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if !isValidRequestID(requestID) {
			requestID = uuid.New().String()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isValidRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	return validRequestID.MatchString(id)
}

// Logger logs HTTP requests with method, path, status code, duration, and request ID.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			ctx := r.Context()
			// Skip noisy probes unless they fail.
			if (r.URL.Path == "/health" || r.URL.Path == "/metrics") && wrapped.statusCode < http.StatusInternalServerError {
				return
			}

			logger.InfoContext(ctx, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestcontext.RequestID(ctx),
				"remote_addr_prefix", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func LatencyMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			if m != nil {
				m.ObserveEndpointLatency(r.URL.Path, time.Since(start).Seconds())
			}
		})
	}
}
