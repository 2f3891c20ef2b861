package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_KEY", "")
	t.Setenv("KV_MAX_BYTES", "")
	t.Setenv("HTTP_READ_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pos-store", cfg.StoreKey)
	assert.Equal(t, 5<<20, cfg.KVMaxBytes)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_KEY", "shop-1")
	t.Setenv("KV_MAX_BYTES", "1024")
	t.Setenv("HTTP_READ_TIMEOUT", "30")
	t.Setenv("DATABASE_URL", "postgres://localhost/pos")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "shop-1", cfg.StoreKey)
	assert.Equal(t, 1024, cfg.KVMaxBytes)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "postgres://localhost/pos", cfg.DatabaseURL)
}

func TestLoadRejectsBadLimit(t *testing.T) {
	t.Setenv("KV_MAX_BYTES", "-1")
	_, err := Load()
	assert.Error(t, err)
}

func TestNewLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{LogLevel: "warn", LogFormat: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":1`)
}
