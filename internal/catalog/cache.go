package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "catalog:product:"

// Cache is a Redis-backed read cache for single product lookups.
// A nil cache (or nil client) degrades to a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached product when present.
func (c *Cache) Get(ctx context.Context, id string) (Product, bool) {
	if c == nil || c.client == nil {
		return Product{}, false
	}
	raw, err := c.client.Get(ctx, cacheKeyPrefix+id).Bytes()
	if err != nil {
		return Product{}, false
	}
	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return Product{}, false
	}
	return p, true
}

// Set stores the product under its id.
func (c *Cache) Set(ctx context.Context, p Product) error {
	if c == nil || c.client == nil {
		return nil
	}
	if p.ID == "" {
		return errors.New("cache: product id required")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+p.ID, raw, c.ttl).Err()
}

// Invalidate drops the cached product after any write against it.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKeyPrefix+id).Err()
}
