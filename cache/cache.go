// Package cache stores rendered summaries in redis keyed by upload content, prompt
// and model, so a repeated request can skip the remote pipeline.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/video-summarizer/config"
)

const (
	keyPrefix = "summary:"
	opTimeout = time.Second
)

// SummaryCache is safe to use as a nil pointer, in which case every lookup misses
// and every store is dropped.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns nil when no redis address is configured.
func New(cfg config.CacheConfig) *SummaryCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	return NewWithClient(client, cfg.TTL)
}

func NewWithClient(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// Key derives the cache key from the hex digest of the uploaded bytes, the prompt
// and the model name.
func Key(digest, prompt, model string) string {
	h := sha256.New()
	h.Write([]byte(digest))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write([]byte(model))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *SummaryCache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *SummaryCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Get returns the cached summary. Redis errors are logged and reported as a miss.
func (c *SummaryCache) Get(ctx context.Context, key string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	summary, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Redis read failed")
		return "", false
	}

	logrus.WithField("key", key).Info("Summary cache hit")
	return summary, true
}

func (c *SummaryCache) Set(ctx context.Context, key, summary string) {
	if !c.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, summary, c.ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Redis write failed")
	}
}

func (c *SummaryCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
