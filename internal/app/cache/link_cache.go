// Package cache is the Redis front for code → link lookups. It is never
// the source of truth: every failure in here degrades to a miss and the
// caller falls back to Postgres.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	infraprometheus "github.com/shrinker-io/shrinker/internal/infra/prometheus"
	"go.uber.org/zap"
)

const keyPrefix = "link:"

// Entry is the cached projection of a link.
type Entry struct {
	LinkID      int64  `json:"link_id"`
	OriginalURL string `json:"original_url"`
}

// LinkCache wraps a redis client with the TTL and timeout policy for link
// entries.
type LinkCache struct {
	rdb     redis.Cmdable
	logger  *zap.Logger
	ttl     time.Duration
	timeout time.Duration
}

// New builds a LinkCache. ttl bounds entry lifetime (eviction, not
// correctness: code → URL is immutable). timeout bounds each round-trip so
// a slow Redis cannot stall the redirect path.
func New(rdb redis.Cmdable, logger *zap.Logger, ttl, timeout time.Duration) *LinkCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkCache{rdb: rdb, logger: logger, ttl: ttl, timeout: timeout}
}

// Get looks up a code. Any error, including a deadline, counts as a miss.
func (c *LinkCache) Get(ctx context.Context, code string) (*Entry, bool) {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.rdb.Get(opCtx, keyPrefix+code).Result()
	if err != nil {
		if err != redis.Nil {
			infraprometheus.CacheErrorsTotal.Inc()
			c.logger.Warn("link cache get failed, treating as miss",
				zap.String("code", code), zap.Error(err))
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		infraprometheus.CacheErrorsTotal.Inc()
		c.logger.Warn("link cache entry is corrupt, treating as miss",
			zap.String("code", code), zap.Error(err))
		return nil, false
	}
	return &entry, true
}

// Set stores an entry best-effort. Concurrent writers for the same code are
// fine: the content for a code never changes, so last-write-wins is
// idempotent.
func (c *LinkCache) Set(ctx context.Context, code string, entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("link cache entry failed to marshal", zap.Error(err))
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rdb.Set(opCtx, keyPrefix+code, data, c.ttl).Err(); err != nil {
		infraprometheus.CacheErrorsTotal.Inc()
		c.logger.Warn("link cache set failed",
			zap.String("code", code), zap.Error(err))
	}
}
