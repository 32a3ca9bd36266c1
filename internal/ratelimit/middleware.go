package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"docverify/pkg/platform/httputil"
	"docverify/pkg/platform/privacy"
	"docverify/pkg/requestcontext"
)

// Store counts hits per key.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Metrics counts throttling decisions.
type Metrics struct {
	Decisions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_ratelimit_decisions_total",
			Help: "Rate limit decisions by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) inc(outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome).Inc()
	}
}

// Middleware limits requests per client IP.
type Middleware struct {
	store   Store
	limit   int
	window  time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Middleware)

func WithMetrics(m *Metrics) Option {
	return func(mw *Middleware) {
		mw.metrics = m
	}
}

// New creates the middleware. A limit of zero or less disables throttling.
func New(store Store, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{store: store, limit: limit, window: window, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled() {
		logger.Info("rate limiting disabled")
	}
	return m
}

func (m *Middleware) disabled() bool {
	return m.store == nil || m.limit <= 0 || m.window <= 0
}

// Handler rejects requests over the limit with 429. Store failures let the request through.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		result, err := m.store.Allow(ctx, "ip:"+ip, m.limit, m.window)
		if err != nil {
			m.metrics.inc("error")
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"request_id", requestcontext.RequestID(ctx),
				"ip_prefix", privacy.AnonymizeIP(ip),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		addHeaders(w, result)
		if !result.Allowed {
			m.metrics.inc("denied")
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"ip_prefix", privacy.AnonymizeIP(ip),
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, &ExceededResponse{
				Error:      "rate_limit_exceeded",
				Message:    "Too many verification attempts from this IP address. Please try again later.",
				RetryAfter: result.RetryAfter,
			})
			return
		}

		m.metrics.inc("allowed")
		next.ServeHTTP(w, r)
	})
}

func addHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
