package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8082", cfg.Addr)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestUsesDevSecret(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("TOKEN_SECRET", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.UsesDevSecret())

	t.Setenv("TOKEN_SECRET", "a-real-secret-of-32-bytes-length")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.False(t, cfg.UsesDevSecret())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
store:
  backend: sqlite
  sqlite_path: /tmp/x.db
auth:
  latency: 250ms
  rate_per_minute: 10
`), 0o600))

	t.Setenv("STOREFRONT_ADDR", ":9100")
	t.Setenv("AUTH_RATE_BURST", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/tmp/x.db", cfg.Store.SQLitePath)
	assert.Equal(t, 250*time.Millisecond, cfg.Auth.Latency)
	assert.Equal(t, 10, cfg.Auth.RatePerMinute)
	assert.Equal(t, 2, cfg.Auth.RateBurst)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err = Load("")
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("STORE_BACKEND", "cassandra")
	_, err = Load("")
	assert.ErrorContains(t, err, "unknown store backend")

	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("TOKEN_TTL", "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, "TOKEN_TTL")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"
	log := cfg.Logger(&buf)

	log.Info("hidden")
	log.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
