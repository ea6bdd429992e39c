//go:build integration

package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/hexlink/internal/application"
	"github.com/sp3dr4/hexlink/internal/domain"
)

func TestShortener_Scenario_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	ctx := context.Background()

	first, err := env.Shorten.Shorten(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{6}$`, first.ShortAlias)
	assert.True(t, first.Created)

	second, err := env.Shorten.Shorten(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, first.ShortAlias, second.ShortAlias)
	assert.False(t, second.Created)

	res, err := env.Resolve.Resolve(ctx, first.ShortAlias)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", res.OriginalURL)

	_, err = env.Resolve.Resolve(ctx, "zzzzzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var count int
	require.NoError(t, env.DB.Get(&count, "SELECT COUNT(*) FROM urls"))
	assert.Equal(t, 1, count)
}

func TestShortener_CacheLayout_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	ctx := context.Background()

	created, err := env.Shorten.Shorten(ctx, "https://example.com/layout")
	require.NoError(t, err)

	v, err := env.RedisClient.Get(ctx, "shortUrl:"+created.ShortAlias).Result()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/layout", v)

	v, err = env.RedisClient.Get(ctx, "originalUrl:https://example.com/layout").Result()
	require.NoError(t, err)
	assert.Equal(t, created.ShortAlias, v)

	ttl, err := env.RedisClient.TTL(ctx, "shortUrl:"+created.ShortAlias).Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
}

func TestShortener_ReadRepair_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	ctx := context.Background()

	_, err := env.DB.Exec(
		`INSERT INTO urls (short_alias, original_url) VALUES ($1, $2)`,
		"d1d2d3", "https://example.com/direct")
	require.NoError(t, err)

	err = env.RedisClient.Get(ctx, "shortUrl:d1d2d3").Err()
	assert.Equal(t, redis.Nil, err)

	res, err := env.Resolve.Resolve(ctx, "d1d2d3")
	require.NoError(t, err)
	assert.Equal(t, application.SourceStore, res.Source)

	cached, err := env.RedisClient.Get(ctx, "shortUrl:d1d2d3").Result()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/direct", cached)

	res, err = env.Resolve.Resolve(ctx, "d1d2d3")
	require.NoError(t, err)
	assert.Equal(t, application.SourceCache, res.Source)
}

func TestShortener_CacheLoss_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	ctx := context.Background()

	created, err := env.Shorten.Shorten(ctx, "https://example.com/flush")
	require.NoError(t, err)

	require.NoError(t, env.RedisClient.FlushDB(ctx).Err())

	again, err := env.Shorten.Shorten(ctx, "https://example.com/flush")
	require.NoError(t, err)
	assert.Equal(t, created.ShortAlias, again.ShortAlias)

	res, err := env.Resolve.Resolve(ctx, created.ShortAlias)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/flush", res.OriginalURL)
}

func TestShortener_ConcurrentAccess_Integration(t *testing.T) {
	env := SetupTestEnvironment(t)
	ctx := context.Background()

	const numGoroutines = 20

	var wg sync.WaitGroup
	aliases := make([]string, numGoroutines)
	errs := make([]error, numGoroutines)

	for i := range numGoroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Half the workers share a URL to exercise the dedup race.
			url := fmt.Sprintf("https://example.com/concurrent/%d", i)
			if i%2 == 0 {
				url = "https://example.com/concurrent/shared"
			}
			res, err := env.Shorten.Shorten(ctx, url)
			errs[i] = err
			if err == nil {
				aliases[i] = res.ShortAlias
			}
		}(i)
	}
	wg.Wait()

	shared := ""
	for i := range numGoroutines {
		require.NoError(t, errs[i], "worker %d", i)
		if i%2 == 0 {
			if shared == "" {
				shared = aliases[i]
			}
			assert.Equal(t, shared, aliases[i], "worker %d", i)
		}
	}

	var count int
	require.NoError(t, env.DB.Get(&count, "SELECT COUNT(*) FROM urls"))
	assert.Equal(t, numGoroutines/2+1, count)

	var distinct int
	require.NoError(t, env.DB.Get(&distinct, "SELECT COUNT(DISTINCT short_alias) FROM urls"))
	assert.Equal(t, count, distinct)
}
