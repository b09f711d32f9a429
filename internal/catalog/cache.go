package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RiBaSoOrg/BasketService/internal/domain"
)

const cacheKeyPrefix = "catalog:book:"

// RecordCache is a Redis-backed read-through cache for resolved catalog
// records. A cache hit lets the lookup bridge skip the broker round trip
// entirely.
type RecordCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRecordCache creates a catalog record cache with the given TTL.
func NewRecordCache(client *redis.Client, ttl time.Duration) *RecordCache {
	return &RecordCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached record for the book ID, or (nil, nil) on a miss.
func (c *RecordCache) Get(ctx context.Context, bookID string) (*domain.CatalogRecord, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+bookID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get catalog record: %w", err)
	}

	var record domain.CatalogRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal catalog record: %w", err)
	}

	return &record, nil
}

// Set stores a resolved record with the configured TTL.
func (c *RecordCache) Set(ctx context.Context, record *domain.CatalogRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal catalog record: %w", err)
	}

	if err := c.client.Set(ctx, cacheKeyPrefix+record.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set catalog record: %w", err)
	}

	return nil
}
