package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/hexlink/internal/domain"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:        s.Addr(),
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	cache := NewRedisCache(client)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, s
}

func TestRedisCache_StoreAndLookup(t *testing.T) {
	cache, s := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, domain.NamespaceAlias, "a1b2c3", "https://example.com/a", time.Hour))
	require.NoError(t, cache.Store(ctx, domain.NamespaceOriginalURL, "https://example.com/a", "a1b2c3", time.Hour))

	res := cache.Lookup(ctx, domain.NamespaceAlias, "a1b2c3")
	assert.Equal(t, domain.CacheHit, res.Status)
	assert.Equal(t, "https://example.com/a", res.Value)

	res = cache.Lookup(ctx, domain.NamespaceOriginalURL, "https://example.com/a")
	assert.Equal(t, domain.CacheHit, res.Status)
	assert.Equal(t, "a1b2c3", res.Value)

	// Raw key layout and TTL as seen by Redis
	got, err := s.Get("shortUrl:a1b2c3")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", got)
	assert.Equal(t, time.Hour, s.TTL("shortUrl:a1b2c3"))
	assert.Equal(t, time.Hour, s.TTL("originalUrl:https://example.com/a"))
}

func TestRedisCache_NamespacesAreSeparate(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, domain.NamespaceAlias, "same", "https://example.com/x", time.Hour))

	res := cache.Lookup(ctx, domain.NamespaceOriginalURL, "same")
	assert.Equal(t, domain.CacheMiss, res.Status)
}

func TestRedisCache_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	res := cache.Lookup(context.Background(), domain.NamespaceAlias, "zzzzzz")
	assert.Equal(t, domain.CacheMiss, res.Status)
	assert.Empty(t, res.Value)
	assert.NoError(t, res.Err)
}

func TestRedisCache_Expiry(t *testing.T) {
	cache, s := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, domain.NamespaceAlias, "a1b2c3", "https://example.com/a", time.Hour))

	s.FastForward(time.Hour + time.Second)

	res := cache.Lookup(ctx, domain.NamespaceAlias, "a1b2c3")
	assert.Equal(t, domain.CacheMiss, res.Status)
}

func TestRedisCache_Unavailable(t *testing.T) {
	cache, s := setupTestRedis(t)
	ctx := context.Background()

	s.Close()

	res := cache.Lookup(ctx, domain.NamespaceAlias, "a1b2c3")
	assert.Equal(t, domain.CacheUnavailable, res.Status)
	assert.Error(t, res.Err)

	assert.Error(t, cache.Store(ctx, domain.NamespaceAlias, "a1b2c3", "https://example.com/a", time.Hour))
	assert.Error(t, cache.Ping(ctx))
}

func TestRedisCache_Ping(t *testing.T) {
	cache, _ := setupTestRedis(t)
	assert.NoError(t, cache.Ping(context.Background()))
}
