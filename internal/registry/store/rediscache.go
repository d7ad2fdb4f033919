package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	registrymetrics "deedledger/internal/registry/metrics"
	"deedledger/internal/registry/models"
	"deedledger/pkg/domain"
)

const cacheKeyPrefix = "deedledger:prop:"

// RedisCache is a read-through cache over another Store. Registry records
// are immutable once written, so a cached record can never go stale; the TTL
// only bounds memory.
type RedisCache struct {
	inner   Store
	client  *redis.Client
	ttl     time.Duration
	metrics *registrymetrics.Metrics
}

func NewRedisCache(inner Store, client *redis.Client, ttl time.Duration, metrics *registrymetrics.Metrics) *RedisCache {
	return &RedisCache{inner: inner, client: client, ttl: ttl, metrics: metrics}
}

// Create delegates to the inner store and leaves the cache alone: the insert
// may still be inside an uncommitted registration transaction, and caching it
// here would serve a record that a later rollback erases. The first lookup
// populates the cache instead.
func (c *RedisCache) Create(ctx context.Context, record *models.PropertyRecord) error {
	return c.inner.Create(ctx, record)
}

func (c *RedisCache) FindByID(ctx context.Context, propertyID domain.PropertyID) (*models.PropertyRecord, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+propertyID.String()).Result()
	if err == nil {
		var record models.PropertyRecord
		if jsonErr := json.Unmarshal([]byte(raw), &record); jsonErr == nil {
			c.recordHit()
			return &record, nil
		}
		// Unreadable entry: fall through and repopulate.
	} else if !errors.Is(err, redis.Nil) {
		// Cache unavailable: serve from the store rather than failing reads.
		return c.inner.FindByID(ctx, propertyID)
	}

	c.recordMiss()
	record, err := c.inner.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, record)
	return record, nil
}

func (c *RedisCache) List(ctx context.Context) ([]*models.PropertyRecord, error) {
	return c.inner.List(ctx)
}

func (c *RedisCache) Count(ctx context.Context) (int64, error) {
	return c.inner.Count(ctx)
}

func (c *RedisCache) put(ctx context.Context, record *models.PropertyRecord) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cacheKeyPrefix+record.PropertyID.String(), raw, c.ttl).Err()
}

func (c *RedisCache) recordHit() {
	if c.metrics != nil {
		c.metrics.RecordCacheHit()
	}
}

func (c *RedisCache) recordMiss() {
	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}
}
