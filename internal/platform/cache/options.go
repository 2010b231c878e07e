package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// OptionsCache keeps small id/name listings in Redis as JSON blobs.
// A nil client disables caching, every call becomes a miss.
type OptionsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOptionsCache builds the cache with the given entry TTL.
func NewOptionsCache(client *redis.Client, ttl time.Duration) *OptionsCache {
	return &OptionsCache{client: client, ttl: ttl}
}

// Get loads the cached listing into dest. The boolean reports a hit.
func (c *OptionsCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores the listing under key for the configured TTL.
func (c *OptionsCache) Set(ctx context.Context, key string, value any) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate drops the given keys, typically after a directory write.
func (c *OptionsCache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
