package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/odyssey-erp/odyssey-store/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-store/internal/platform/db"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode reads the ODYSSEY_TEST_MODE flag once.
func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	detectTestMode()
}

// Connect opens the connections the configuration asks for. A Redis outage
// is tolerated unless REDIS_REQUIRED is set; carts then live in memory and
// dashboards are not cached. The returned func closes everything opened.
func Connect(ctx context.Context, cfg *Config, logger *slog.Logger) (Infra, func(), error) {
	var infra Infra
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.UsesPostgres() {
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
		if err != nil {
			return Infra{}, func() {}, fmt.Errorf("connect postgres: %w", err)
		}
		infra.Pool = pool
		closers = append(closers, pool.Close)
	}

	client, err := cache.New(ctx, cfg.RedisOptions())
	switch {
	case err == nil:
		infra.Redis = client
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		})
	case cfg.RedisRequired:
		closeAll()
		return Infra{}, func() {}, fmt.Errorf("connect redis: %w", err)
	default:
		logger.Warn("redis unavailable, running without cache", slog.String("addr", cfg.RedisAddr), slog.Any("error", err))
	}

	return infra, closeAll, nil
}
