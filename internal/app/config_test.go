package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 72*time.Hour, cfg.CartTTL)
	assert.Equal(t, 10*time.Minute, cfg.DashboardCacheTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.False(t, cfg.UsesPostgres())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CART_TTL", "0s")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestRedisSettingsShareOneSource(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_PASSWORD", "pw")
	t.Setenv("REDIS_DB", "3")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	opts := cfg.RedisOptions()
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)

	asynqOpts := cfg.AsynqRedis()
	assert.Equal(t, opts.Addr, asynqOpts.Addr)
	assert.Equal(t, opts.DB, asynqOpts.DB)

	t.Setenv("REDIS_DB", "-1")
	_, err = LoadConfig()
	require.Error(t, err)
}
