package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"docverify/pkg/platform/middleware/metadata"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	Environment    string
	LogLevel       slog.Level
	MaxUploadBytes int64
	AdminJWTSecret string
	PIIHashKey     string
	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix
}

// Thresholds are the tunable decision boundaries of the verification pipeline.
type Thresholds struct {
	Similarity float64
	Face       float64
	FacePolicy string
	Blur       float64
}

// Timeouts bound each call to an external capability.
type Timeouts struct {
	OCR       time.Duration
	FaceMatch time.Duration
	Dispatch  time.Duration
}

// Endpoint is an outbound HTTP collaborator with a bearer credential.
type Endpoint struct {
	URL    string
	APIKey string
}

// OCRConfig configures the Google Vision text detection client.
type OCRConfig struct {
	CredentialsFile string
}

// StorageConfig configures where uploaded documents are persisted.
type StorageConfig struct {
	UploadBucketURL string
}

// DatabaseConfig configures the Postgres record store. Empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig configures the record read cache. Empty URL disables caching.
type RedisConfig struct {
	URL            string
	PoolSize       int
	MinIdleConns   int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RecordCacheTTL time.Duration
}

// KafkaConfig configures verdict audit events. Empty Brokers selects the noop producer.
type KafkaConfig struct {
	Brokers         string
	AuditTopic      string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// RateLimitConfig throttles POST /verify per client IP. Limit 0 disables it.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// Config is the full process configuration, threaded explicitly through constructors.
type Config struct {
	Server     Server
	Thresholds Thresholds
	Timeouts   Timeouts
	Dispatch   Endpoint
	FaceMatch  Endpoint
	OCR        OCRConfig
	Storage    StorageConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	RateLimit  RateLimitConfig
}

// Load reads an optional .env file and then builds the config from the environment.
// Variables already set in the environment win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	p := &parser{}

	cfg := Config{
		Server: Server{
			Addr:           p.str("DOCVERIFY_ADDR", ":8080"),
			Environment:    p.str("DOCVERIFY_ENV", "development"),
			LogLevel:       p.level("LOG_LEVEL", slog.LevelInfo),
			MaxUploadBytes: int64(p.integer("MAX_UPLOAD_BYTES", 20<<20)),
			// Defaults are for local development only and must be overridden in production.
			AdminJWTSecret: p.str("ADMIN_JWT_SECRET", "dev-admin-secret-change-in-production"),
			PIIHashKey:     p.str("PII_HASH_KEY", "dev-pii-key-change-in-production"),
			TrustedProxies: p.prefixes("TRUSTED_PROXIES"),
		},
		Thresholds: Thresholds{
			Similarity: p.float("SIMILARITY_THRESHOLD", 0.85),
			Face:       p.float("FACE_THRESHOLD", 0.5),
			FacePolicy: p.str("FACE_POLICY", "verified_and_distance"),
			Blur:       p.float("BLUR_THRESHOLD", 100),
		},
		Timeouts: Timeouts{
			OCR:       p.duration("OCR_TIMEOUT", 30*time.Second),
			FaceMatch: p.duration("FACE_MATCH_TIMEOUT", 30*time.Second),
			Dispatch:  p.duration("DISPATCH_TIMEOUT", 10*time.Second),
		},
		Dispatch: Endpoint{
			URL:    p.str("DISPATCH_URL", ""),
			APIKey: p.str("DISPATCH_API_KEY", ""),
		},
		FaceMatch: Endpoint{
			URL:    p.str("FACE_MATCH_URL", "http://localhost:5005"),
			APIKey: p.str("FACE_MATCH_API_KEY", ""),
		},
		OCR: OCRConfig{
			CredentialsFile: p.str("GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
		Storage: StorageConfig{
			UploadBucketURL: p.str("UPLOAD_BUCKET_URL", "mem://"),
		},
		Database: DatabaseConfig{
			URL:             p.str("DATABASE_URL", ""),
			MaxOpenConns:    p.integer("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    p.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:     p.boolean("DATABASE_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			URL:            p.str("REDIS_URL", ""),
			PoolSize:       p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns:   p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:    p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:    p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:   p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			RecordCacheTTL: p.duration("RECORD_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:         p.str("KAFKA_BROKERS", ""),
			AuditTopic:      p.str("KAFKA_AUDIT_TOPIC", "docverify.verdicts"),
			Acks:            p.str("KAFKA_ACKS", "all"),
			Retries:         p.integer("KAFKA_RETRIES", 3),
			DeliveryTimeout: p.duration("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Limit:  p.integer("RATE_LIMIT_VERIFY", 20),
			Window: p.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	if err := errors.Join(append(p.errs, cfg.validate()...)...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error
	if c.Thresholds.Similarity < 0 || c.Thresholds.Similarity > 1 {
		errs = append(errs, fmt.Errorf("SIMILARITY_THRESHOLD must be within [0,1], got %v", c.Thresholds.Similarity))
	}
	if c.Thresholds.Face < 0 {
		errs = append(errs, fmt.Errorf("FACE_THRESHOLD must not be negative, got %v", c.Thresholds.Face))
	}
	if c.Thresholds.Blur < 0 {
		errs = append(errs, fmt.Errorf("BLUR_THRESHOLD must not be negative, got %v", c.Thresholds.Blur))
	}
	switch c.Thresholds.FacePolicy {
	case "verified", "verified_and_distance":
	default:
		errs = append(errs, fmt.Errorf("FACE_POLICY must be verified or verified_and_distance, got %q", c.Thresholds.FacePolicy))
	}
	if c.RateLimit.Limit > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive when RATE_LIMIT_VERIFY is set"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive"))
	}
	return errs
}

// parser collects every malformed variable so startup reports them all at once.
type parser struct {
	errs []error
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) float(key string, def float64) float64 {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) integer(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) boolean(key string, def bool) bool {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) prefixes(key string) []netip.Prefix {
	v, err := metadata.ParseTrustedProxies(p.str(key, ""))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return nil
	}
	return v
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return lvl
}
