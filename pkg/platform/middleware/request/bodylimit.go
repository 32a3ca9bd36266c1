package request

import (
	"net/http"
)

// BodyLimit returns middleware that limits the size of request bodies.
// Reads past the limit fail with *http.MaxBytesError, which handlers map to 413.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
