package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nijaru/video-summarizer/config"
)

func newTestCache(t *testing.T, ttl time.Duration) (*SummaryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(rdb, ttl)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestSetAndGet(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()
	key := Key("abc", "Summarize", "models/test")

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Set(ctx, key, "<h1>Hello</h1>")

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "<h1>Hello</h1>", got)
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestDefaultTTL(t *testing.T) {
	c, mr := newTestCache(t, 0)
	c.Set(context.Background(), "k", "v")
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestExpiry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "k", "v")
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisErrorIsMiss(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), time.Minute)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "k", "v")
	mr.Close()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	c.Set(ctx, "k", "v2")
}

func TestKey(t *testing.T) {
	base := Key("digest", "prompt", "model")

	assert.Contains(t, base, keyPrefix)
	assert.Equal(t, base, Key("digest", "prompt", "model"))
	assert.NotEqual(t, base, Key("digest2", "prompt", "model"))
	assert.NotEqual(t, base, Key("digest", "", "model"))
	assert.NotEqual(t, base, Key("digest", "prompt", "other"))
	// separators keep field boundaries distinct
	assert.NotEqual(t, Key("ab", "c", "m"), Key("a", "bc", "m"))
}

func TestNilCache(t *testing.T) {
	var c *SummaryCache
	ctx := context.Background()

	assert.False(t, c.Enabled())
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	c.Set(ctx, "k", "v")
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestNewDisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, New(config.CacheConfig{}))
}

func TestNewWithAddr(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(config.CacheConfig{RedisAddr: mr.Addr(), TTL: time.Hour})
	require.NotNil(t, c)
	defer c.Close()

	assert.NoError(t, c.Ping(context.Background()))
}
