package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, slog.LevelInfo, cfg.Server.LogLevel)
	assert.InDelta(t, 0.85, cfg.Thresholds.Similarity, 1e-9)
	assert.InDelta(t, 0.5, cfg.Thresholds.Face, 1e-9)
	assert.InDelta(t, 100, cfg.Thresholds.Blur, 1e-9)
	assert.Equal(t, "verified_and_distance", cfg.Thresholds.FacePolicy)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.OCR)
	assert.Equal(t, "mem://", cfg.Storage.UploadBucketURL)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "docverify.verdicts", cfg.Kafka.AuditTopic)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("FACE_THRESHOLD", "0.4")
	t.Setenv("FACE_POLICY", "verified")
	t.Setenv("BLUR_THRESHOLD", "80")
	t.Setenv("OCR_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DISPATCH_URL", "https://records.example.com/api/verify")
	t.Setenv("TRUSTED_PROXIES", "127.0.0.1, 10.0.0.0/8")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.InDelta(t, 0.9, cfg.Thresholds.Similarity, 1e-9)
	assert.InDelta(t, 0.4, cfg.Thresholds.Face, 1e-9)
	assert.Equal(t, "verified", cfg.Thresholds.FacePolicy)
	assert.InDelta(t, 80, cfg.Thresholds.Blur, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.OCR)
	assert.Equal(t, slog.LevelDebug, cfg.Server.LogLevel)
	assert.Equal(t, "https://records.example.com/api/verify", cfg.Dispatch.URL)
	require.Len(t, cfg.Server.TrustedProxies, 2)
	assert.Equal(t, "127.0.0.1/32", cfg.Server.TrustedProxies[0].String())
	assert.Equal(t, "10.0.0.0/8", cfg.Server.TrustedProxies[1].String())
}

func TestFromEnv_ReportsEveryMalformedValue(t *testing.T) {
	t.Setenv("SIMILARITY_THRESHOLD", "high")
	t.Setenv("OCR_TIMEOUT", "thirty")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/99")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SIMILARITY_THRESHOLD")
	assert.Contains(t, err.Error(), "OCR_TIMEOUT")
	assert.Contains(t, err.Error(), "TRUSTED_PROXIES")
}

func TestFromEnv_RejectsOutOfRangeValues(t *testing.T) {
	t.Run("similarity above one", func(t *testing.T) {
		t.Setenv("SIMILARITY_THRESHOLD", "1.5")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "SIMILARITY_THRESHOLD")
	})

	t.Run("unknown face policy", func(t *testing.T) {
		t.Setenv("FACE_POLICY", "lenient")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "FACE_POLICY")
	})
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BLUR_THRESHOLD=42\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("BLUR_THRESHOLD")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 42, cfg.Thresholds.Blur, 1e-9)
}

func TestLoad_MissingDotEnvIsFine(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = Load()
	assert.NoError(t, err)
}
