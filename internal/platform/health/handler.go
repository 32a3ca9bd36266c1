// Package health provides HTTP health check endpoints for liveness, readiness, and status probes.
package health

import (
	"context"
	"maps"
	"net/http"
	"sync"
	"time"

	"docverify/pkg/platform/httputil"

	"github.com/go-chi/chi/v5"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckFunc checks the health of a dependency. It returns nil if healthy.
type CheckFunc func(ctx context.Context) error

// Handler provides health check endpoints.
type Handler struct {
	startTime   time.Time
	environment string
	timeout     time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// New creates a new health handler.
func New(environment string) *Handler {
	return &Handler{
		startTime:   time.Now(),
		environment: environment,
		timeout:     2 * time.Second,
		checks:      make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named health check for the readiness probe.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Register mounts health check routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness always returns 200 OK while the process is serving.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness runs every registered check and returns 503 if any fails.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	maps.Copy(checks, h.checks)
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	response := ReadinessResponse{
		Status: "ready",
		Checks: make(map[string]string),
	}

	allHealthy := true
	for name, check := range checks {
		if err := check(ctx); err != nil {
			response.Checks[name] = "down: " + err.Error()
			allHealthy = false
		} else {
			response.Checks[name] = "up"
		}
	}

	if !allHealthy {
		response.Status = "not_ready"
		httputil.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}

type StatusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

// HandleStatus returns general health status with version and uptime information.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
