package engine

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/streamhub-systems/streamhub/internal/metrics"
)

const foldKeyPrefix = "streamhub:fold:"

// FoldCache stores intermediate projection folds in Redis, keyed by the cid
// of the last folded event. Purely an optimization: a miss or a Redis outage
// only costs a longer chain walk, never correctness.
type FoldCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewFoldCache creates a fold cache. ttl <= 0 disables expiry.
func NewFoldCache(client *redis.Client, ttl time.Duration) *FoldCache {
	return &FoldCache{redis: client, ttl: ttl}
}

// Get returns the cached fold state at cid, or nil on a miss. All Redis
// errors are folded into a miss.
func (c *FoldCache) Get(ctx context.Context, cid string) []byte {
	if c == nil || c.redis == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, foldKeyPrefix+cid).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			metrics.FoldCacheHits.WithLabelValues("error").Inc()
			return nil
		}
		metrics.FoldCacheHits.WithLabelValues("miss").Inc()
		return nil
	}
	metrics.FoldCacheHits.WithLabelValues("hit").Inc()
	return data
}

// Set stores the fold state at cid, best-effort.
func (c *FoldCache) Set(ctx context.Context, cid string, state []byte) {
	if c == nil || c.redis == nil {
		return
	}
	c.redis.Set(ctx, foldKeyPrefix+cid, state, c.ttl)
}
