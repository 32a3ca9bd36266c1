package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(New("test")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness(t *testing.T) {
	t.Run("ready when all checks pass", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("database", func(context.Context) error { return nil })

		rec := httptest.NewRecorder()
		newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body ReadinessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "up", body.Checks["database"])
	})

	t.Run("not ready when one check fails", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("database", func(context.Context) error { return nil })
		h.RegisterCheck("kafka", func(context.Context) error { return errors.New("no brokers") })

		rec := httptest.NewRecorder()
		newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body ReadinessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, "down: no brokers", body.Checks["kafka"])
	})
}
