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

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "http://localhost:8000", cfg.Pricing.URL)
	assert.Equal(t, 30*time.Second, cfg.Pricing.Timeout)
	assert.Equal(t, BackendFile, cfg.Archive.Backend)
	assert.Equal(t, "car_estimator_studies", cfg.Archive.Key)
	assert.Equal(t, 10, cfg.Archive.Capacity)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_port: "9090"
pricing:
  url: http://pricing:8000
  timeout: 5s
  lookup_rate_limit: 2.5
archive:
  backend: sqlite
  sqlite_path: /tmp/studies.db
`), 0o644))

	t.Setenv("API_PORT", "7070")
	t.Setenv("PRICING_TIMEOUT", "12s")
	t.Setenv("ARCHIVE_CAPACITY", "not a number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.APIPort)
	assert.Equal(t, "http://pricing:8000", cfg.Pricing.URL)
	assert.Equal(t, 12*time.Second, cfg.Pricing.Timeout)
	assert.Equal(t, 2.5, cfg.Pricing.LookupRateLimit)
	assert.Equal(t, BackendSQLite, cfg.Archive.Backend)
	assert.Equal(t, "/tmp/studies.db", cfg.Archive.SQLitePath)
	assert.Equal(t, 10, cfg.Archive.Capacity)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "dynamodb")

	_, err := Load("")
	assert.ErrorContains(t, err, `unknown archive backend "dynamodb"`)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pricing: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	for level, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	} {
		cfg := &Config{LogLevel: level}
		assert.Equal(t, want, cfg.SlogLevel(), level)
	}
}
