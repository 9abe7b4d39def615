package blueprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/navin3756/shipit/internal/models"
)

const cachePrefix = "shipit:blueprint:"

// RedisCache keeps generated blueprints so identical drafts are not re-analyzed.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.Blueprint, bool, error) {
	raw, err := c.client.Get(ctx, cachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Blueprint{}, false, nil
	}
	if err != nil {
		return models.Blueprint{}, false, fmt.Errorf("cache get: %w", err)
	}
	var bp models.Blueprint
	if err := json.Unmarshal(raw, &bp); err != nil {
		return models.Blueprint{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return bp, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, bp models.Blueprint) error {
	raw, err := json.Marshal(bp)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cachePrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
