package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/mkt-backoffice-api/pkg/errors"
)

// SummaryCache stores recompute batch summaries in Redis so repeated
// back-office polls for the same window do not hit the store.
type SummaryCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSummaryCache constructs the cache. A nil client degrades to a no-op.
func NewSummaryCache(client *redis.Client, logger *zap.Logger) *SummaryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryCache{client: client, logger: logger}
}

// Key builds the cache key for a recompute window.
func (c *SummaryCache) Key(kind, shopID string, from, to time.Time) string {
	if shopID == "" {
		shopID = "all"
	}
	return fmt.Sprintf("recompute:%s:%s:%d:%d", kind, shopID, from.Unix(), to.Unix())
}

// Get retrieves and unmarshals the cached summary into dest.
func (c *SummaryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cached summary for %s: %w", key, err)
	}
	return nil
}

// Set marshals the summary and stores it with the given TTL. Failures are
// logged, not propagated; caching is best effort.
func (c *SummaryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.client == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("marshal recompute summary for cache", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.Warn("cache recompute summary", zap.String("key", key), zap.Error(err))
	}
}
