package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "sqlite", cfg.DBDialect)
	assert.Equal(t, "playingpast.db", cfg.DBDSN)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PWTP_LISTEN_ADDR", "127.0.0.1:9999")
	t.Setenv("PWTP_DB_DIALECT", "postgres")
	t.Setenv("PWTP_DB_DSN", "postgres://localhost/pwtp")
	t.Setenv("PWTP_REDIS_ADDR", "localhost:6379")
	t.Setenv("PWTP_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddr)
	assert.Equal(t, "postgres", cfg.DBDialect)
	assert.Equal(t, "postgres://localhost/pwtp", cfg.DBDSN)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsUnknownDialect(t *testing.T) {
	t.Setenv("PWTP_DB_DIALECT", "oracle")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialect")
}
