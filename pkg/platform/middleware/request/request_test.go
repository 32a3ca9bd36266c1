package request

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"docverify/pkg/requestcontext"
)

func TestRequestID(t *testing.T) {
	t.Run("generates UUID when no header provided", func(t *testing.T) {
		var capturedID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedID = requestcontext.RequestID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/verify", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Len(t, capturedID, 36)
		assert.Equal(t, capturedID, w.Header().Get("X-Request-ID"))
	})

	t.Run("accepts valid client-provided ID", func(t *testing.T) {
		var capturedID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedID = requestcontext.RequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/verify", nil)
		req.Header.Set("X-Request-ID", "trace.span_1234")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "trace.span_1234", capturedID)
		assert.Equal(t, "trace.span_1234", w.Header().Get("X-Request-ID"))
	})

	t.Run("replaces ID with injection characters", func(t *testing.T) {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/verify", nil)
		req.Header.Set("X-Request-ID", "abc\ninjected=1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.NotContains(t, w.Header().Get("X-Request-ID"), "injected")
	})

	t.Run("replaces ID exceeding max length", func(t *testing.T) {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/verify", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("a", MaxRequestIDLength+1))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	})
}

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/verify", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader("this body is too long"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var maxErr *http.MaxBytesError
	assert.True(t, errors.As(readErr, &maxErr))
}
