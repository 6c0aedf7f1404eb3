package analytics

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestVersionStartsAtOneAndRepairsBadValues(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ver, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)

	require.NoError(t, mr.Set(versionKey, "0"))
	ver, err = c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)

	require.NoError(t, mr.Set(versionKey, "not-a-number"))
	_, err = c.Version(ctx)
	require.Error(t, err)
}

func TestDashboardKeyWithoutRedis(t *testing.T) {
	var c *Cache
	key, err := c.DashboardKey(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "analytics:dashboard:7", key)
	require.NoError(t, c.Bump(context.Background()))
}

func TestListenerAppliesPublishedVersion(t *testing.T) {
	c, mr := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, c.ListenForInvalidation(ctx, ""))
	mr.Publish(versionChannel, "9")

	require.Eventually(t, func() bool {
		v, err := mr.Get(versionKey)
		return err == nil && v == "9"
	}, time.Second, 10*time.Millisecond)

	key, err := c.DashboardKey(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "analytics:dashboard:3:v9", key)
}

func TestCachedRejectsCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("analytics:dashboard:1:v1", "{"))

	_, err := cached(context.Background(), c, "analytics:dashboard:1:v1", func(context.Context) (Dashboard, error) {
		return Dashboard{}, nil
	})
	require.ErrorContains(t, err, "decode")
}
