package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionKey      = "analytics:version"
	versionChannel  = "analytics.bump"
	dashboardPrefix = "analytics:dashboard"
)

// Cache stores dashboards in Redis under keys that embed a global version.
// Bumping the version orphans every entry at once; the TTL reclaims them.
// A nil Cache, or one without a client, never caches.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCache returns a Cache on client. client may be nil.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return &Cache{ttl: ttl}
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current generation, creating it at 1 on first use.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		// Another instance may win the race; read back whatever it set.
		if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, fmt.Errorf("analytics cache: init version: %w", err)
		}
		return c.client.Get(ctx, versionKey).Int64()
	case err != nil:
		return 0, fmt.Errorf("analytics cache: read version: %w", err)
	case ver < 1:
		if err := c.client.Set(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, fmt.Errorf("analytics cache: reset version: %w", err)
		}
		return 1, nil
	}
	return ver, nil
}

// DashboardKey returns the versioned key of a store's dashboard, for example
// analytics:dashboard:7:v3. Without Redis the version suffix is omitted.
func (c *Cache) DashboardKey(ctx context.Context, storeID int64) (string, error) {
	base := dashboardPrefix + ":" + strconv.FormatInt(storeID, 10)
	if !c.enabled() {
		return base, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return base + ":v" + strconv.FormatInt(ver, 10), nil
}

// Bump moves every reader to a new version and announces it on the bump
// channel.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return fmt.Errorf("analytics cache: bump: %w", err)
	}
	return c.client.Publish(ctx, versionChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation follows bumps published by instances that share the
// channel but write to a different Redis. It returns once subscribed; the
// listener stops with ctx.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string) error {
	if !c.enabled() {
		return nil
	}
	if channel == "" {
		channel = versionChannel
	}
	sub := c.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("analytics cache: subscribe %s: %w", channel, err)
	}
	go c.follow(ctx, sub)
	return nil
}

func (c *Cache) follow(ctx context.Context, sub *redis.PubSub) {
	defer func() { _ = sub.Close() }()
	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if ver, err := strconv.ParseInt(msg.Payload, 10, 64); err == nil {
				_ = c.client.Set(ctx, versionKey, ver, 0).Err()
			} else {
				_ = c.client.Incr(ctx, versionKey).Err()
			}
		}
	}
}

// cached returns the value stored at key, or builds it, stores it for the
// cache TTL and returns it.
func cached[T any](ctx context.Context, c *Cache, key string, build func(context.Context) (T, error)) (T, error) {
	var zero T
	if c.enabled() {
		raw, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			var hit T
			if err := json.Unmarshal(raw, &hit); err != nil {
				return zero, fmt.Errorf("analytics cache: decode %s: %w", key, err)
			}
			return hit, nil
		}
		if !errors.Is(err, redis.Nil) {
			return zero, fmt.Errorf("analytics cache: read %s: %w", key, err)
		}
	}
	value, err := build(ctx)
	if err != nil {
		return zero, err
	}
	if !c.enabled() {
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("analytics cache: encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return zero, fmt.Errorf("analytics cache: write %s: %w", key, err)
	}
	return value, nil
}
