package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPingTimeout bounds the startup ping when Options leaves it unset.
const DefaultPingTimeout = 5 * time.Second

// Options configures the Redis connection shared by the cart store and the
// analytics cache.
type Options struct {
	Addr        string
	Password    string
	DB          int
	PingTimeout time.Duration
}

func (o Options) redis() *redis.Options {
	return &redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB}
}

// New connects to Redis and returns the client once it answers PING.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("platform/cache: address required")
	}
	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	client := redis.NewClient(opts.redis())

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", opts.Addr, err)
	}
	return client, nil
}
