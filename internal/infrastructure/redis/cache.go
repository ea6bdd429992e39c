package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sp3dr4/hexlink/internal/domain"
)

// RedisCache stores both lookup directions as plain string keys
// ("shortUrl:<alias>", "originalUrl:<url>") written with SET ... EX.
// Failures are returned to the caller, which owns logging them.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Lookup(ctx context.Context, ns domain.Namespace, key string) domain.CacheResult {
	fullKey := ns.Key(key)

	val, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Miss()
		}
		return domain.Unavailable(fmt.Errorf("cache get %s: %w", fullKey, err))
	}

	return domain.Hit(val)
}

func (c *RedisCache) Store(ctx context.Context, ns domain.Namespace, key, value string, ttl time.Duration) error {
	fullKey := ns.Key(key)

	if err := c.client.Set(ctx, fullKey, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", fullKey, err)
	}

	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
