package main

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jwttoken "docverify/internal/jwt_token"
	"docverify/internal/platform/health"
	"docverify/internal/ratelimit"
	recordshandler "docverify/internal/records/handler"
	verifyhandler "docverify/internal/verification/handler"
	"docverify/pkg/platform/middleware/admin"
	"docverify/pkg/platform/middleware/metadata"
	"docverify/pkg/platform/middleware/request"
	"docverify/pkg/platform/middleware/requesttime"
)

// routes holds everything the HTTP surface is assembled from.
type routes struct {
	health    *health.Handler
	verify    *verifyhandler.Handler
	records   *recordshandler.Handler
	limiter   *ratelimit.Middleware
	tokens    *jwttoken.JWTService
	latency   *request.Metrics
	maxUpload int64
	proxies   []netip.Prefix
}

// newRouter mounts the public submission endpoint behind the rate limiter and
// the record endpoints behind admin authentication.
func newRouter(rt routes, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(metadata.ClientMetadata(rt.proxies))
	r.Use(requesttime.Middleware)
	r.Use(request.LatencyMiddleware(rt.latency))

	rt.health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(rt.limiter.Handler)
		r.Use(request.BodyLimit(rt.maxUpload))
		rt.verify.Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdmin(rt.tokens, log))
		rt.records.Register(r)
	})
	return r
}
