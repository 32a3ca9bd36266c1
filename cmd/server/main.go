package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"docverify/internal/audit"
	"docverify/internal/dispatch"
	"docverify/internal/document/normalize"
	"docverify/internal/document/ocr"
	"docverify/internal/document/quality"
	"docverify/internal/facematch"
	jwttoken "docverify/internal/jwt_token"
	"docverify/internal/platform/config"
	"docverify/internal/platform/database"
	"docverify/internal/platform/health"
	"docverify/internal/platform/httpserver"
	"docverify/internal/platform/kafka/producer"
	"docverify/internal/platform/logger"
	"docverify/internal/platform/redis"
	"docverify/internal/platform/tracer"
	"docverify/internal/ratelimit"
	recordshandler "docverify/internal/records/handler"
	recordstore "docverify/internal/records/store"
	"docverify/internal/uploads"
	"docverify/internal/verification"
	verifyhandler "docverify/internal/verification/handler"
	"docverify/internal/verification/metrics"
	"docverify/migrations"
	"docverify/pkg/platform/middleware/request"
	"docverify/pkg/platform/privacy"
)

const (
	shutdownTimeout = 30 * time.Second
	auditBufferSize = 1024
	jwtIssuer       = "docverify"
	jwtAudience     = "docverify-admin"
)

func main() {
	if err := run(); err != nil {
		slog.Error("docverify stopped", "error", err)
		os.Exit(1)
	}
}

// run wires dependencies, serves HTTP, and tears everything down on SIGINT/SIGTERM.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthHandler := health.New(cfg.Server.Environment)

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		defer rc.Close() //nolint:errcheck // shutdown path
		healthHandler.RegisterCheck("redis", rc.Health)
	}

	records, closeRecords, err := buildRecordStore(ctx, cfg, log, healthHandler, rc)
	if err != nil {
		return err
	}
	defer closeRecords()

	uploadStore, err := uploads.Open(ctx, cfg.Storage.UploadBucketURL)
	if err != nil {
		return fmt.Errorf("open upload bucket: %w", err)
	}
	defer uploadStore.Close() //nolint:errcheck // shutdown path
	healthHandler.RegisterCheck("uploads", uploadStore.Healthy)

	auditPublisher, closeAudit, err := buildAuditPublisher(cfg, log, healthHandler)
	if err != nil {
		return err
	}
	defer closeAudit()

	engine, err := ocr.NewVisionEngine(ctx, cfg.OCR.CredentialsFile)
	if err != nil {
		return fmt.Errorf("create OCR engine: %w", err)
	}
	defer engine.Close() //nolint:errcheck // shutdown path

	pipeline, err := verification.NewPipeline(
		verification.Config{
			SimilarityThreshold: cfg.Thresholds.Similarity,
			FaceThreshold:       cfg.Thresholds.Face,
			FacePolicy:          verification.FacePolicy(cfg.Thresholds.FacePolicy),
			OCRTimeout:          cfg.Timeouts.OCR,
			FaceMatchTimeout:    cfg.Timeouts.FaceMatch,
			DispatchTimeout:     cfg.Timeouts.Dispatch,
		},
		normalize.New(log),
		ocr.NewExtractor(quality.NewGate(cfg.Thresholds.Blur), engine, log),
		facematch.New(cfg.FaceMatch.URL, cfg.FaceMatch.APIKey, &http.Client{}, log),
		dispatch.New(cfg.Dispatch.URL, cfg.Dispatch.APIKey, &http.Client{}, log),
		verification.WithUploadStore(uploadStore),
		verification.WithRecordStore(records),
		verification.WithAuditPublisher(auditPublisher),
		verification.WithMetrics(metrics.New()),
		verification.WithTracer(tracer.NewOTel("docverify/verification")),
		verification.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	var limiterStore ratelimit.Store = ratelimit.NewInMemoryStore()
	if rc != nil {
		limiterStore = ratelimit.NewRedisStore(rc.Client)
	}

	r := newRouter(routes{
		health:    healthHandler,
		verify:    verifyhandler.New(pipeline, log, cfg.Server.MaxUploadBytes),
		records:   recordshandler.New(records, log),
		limiter:   ratelimit.New(limiterStore, cfg.RateLimit.Limit, cfg.RateLimit.Window, log, ratelimit.WithMetrics(ratelimit.NewMetrics(prometheus.DefaultRegisterer))),
		tokens:    jwttoken.NewJWTService(cfg.Server.AdminJWTSecret, jwtIssuer, jwtAudience),
		latency:   request.NewMetrics(),
		maxUpload: cfg.Server.MaxUploadBytes,
		proxies:   cfg.Server.TrustedProxies,
	}, log)

	srv := httpserver.New(cfg.Server.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting docverify",
			"addr", cfg.Server.Addr,
			"env", cfg.Server.Environment,
			"version", health.Version,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildRecordStore picks Postgres when DATABASE_URL is set, the in-memory store
// otherwise, and puts the Redis cache in front when REDIS_URL is set.
func buildRecordStore(ctx context.Context, cfg config.Config, log *slog.Logger, h *health.Handler, rc *redis.Client) (recordstore.Store, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var records recordstore.Store = recordstore.NewInMemory()

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, closeAll, fmt.Errorf("connect database: %w", err)
	}
	if pool != nil {
		closers = append(closers, func() { _ = pool.Close() })
		h.RegisterCheck("database", pool.Health)
		if cfg.Database.AutoMigrate {
			if err := migrations.Up(ctx, pool.DB()); err != nil {
				closeAll()
				return nil, func() {}, err
			}
		}
		records = recordstore.NewPostgres(pool.DB())
	} else {
		log.Warn("DATABASE_URL not set, verification records are kept in memory")
	}

	if rc != nil {
		records = recordstore.NewCached(records, rc.Client, cfg.Redis.RecordCacheTTL, log)
	}

	return records, closeAll, nil
}

// buildAuditPublisher publishes to Kafka when brokers are configured and
// discards events otherwise.
func buildAuditPublisher(cfg config.Config, log *slog.Logger, h *health.Handler) (*audit.Publisher, func(), error) {
	hasher, err := privacy.NewHasher(cfg.Server.PIIHashKey)
	if err != nil {
		return nil, func() {}, fmt.Errorf("create pii hasher: %w", err)
	}

	var prod audit.Producer = producer.NewNoopProducer()
	closeProducer := func() {}
	if cfg.Kafka.Brokers != "" {
		kp, err := producer.New(cfg.Kafka, log)
		if err != nil {
			return nil, func() {}, err
		}
		h.RegisterCheck("kafka", kp.Health)
		prod = kp
		closeProducer = func() { _ = kp.Close() }
	} else {
		log.Warn("KAFKA_BROKERS not set, verdict audit events are discarded")
	}

	pub, err := audit.NewPublisher(prod, cfg.Kafka.AuditTopic,
		audit.WithHasher(hasher),
		audit.WithLogger(log),
		audit.WithAsyncBuffer(auditBufferSize),
		audit.WithMetrics(audit.NewMetrics(prometheus.DefaultRegisterer)),
	)
	if err != nil {
		closeProducer()
		return nil, func() {}, err
	}

	return pub, func() {
		_ = pub.Close()
		closeProducer()
	}, nil
}
