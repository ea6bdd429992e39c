package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sp3dr4/hexlink/internal/domain"
	redisCache "github.com/sp3dr4/hexlink/internal/infrastructure/redis"
	"github.com/sp3dr4/hexlink/internal/pkg/logging"
)

func TestResolveService_Resolve_RoundTrip(t *testing.T) {
	repo := newSpyRepo()
	shorten, resolve := newServices(repo, newFakeCache(), hexGenerator(t), DefaultOptions())
	ctx := context.Background()

	created, err := shorten.Shorten(ctx, "https://example.com/a?q=1#frag")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := resolve.Resolve(ctx, created.ShortAlias)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OriginalURL != "https://example.com/a?q=1#frag" {
		t.Errorf("expected exact original url, got %q", res.OriginalURL)
	}
}

func TestResolveService_Resolve_CacheHitSkipsStore(t *testing.T) {
	repo := newSpyRepo()
	shorten, resolve := newServices(repo, newFakeCache(), hexGenerator(t), DefaultOptions())
	ctx := context.Background()

	created, err := shorten.Shorten(ctx, "https://example.com/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := resolve.Resolve(ctx, created.ShortAlias)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceCache {
		t.Errorf("expected source %q, got %q", SourceCache, res.Source)
	}
	if n := repo.count("FindByAlias"); n != 0 {
		t.Errorf("expected no store read, got %d", n)
	}
}

func TestResolveService_Resolve_ReadRepair(t *testing.T) {
	repo := newSpyRepo()
	seed(t, repo.URLRepository, "abc123", "https://example.com/a")
	cache := newFakeCache()
	_, resolve := newServices(repo, cache, sequence("ffffff"), DefaultOptions())
	ctx := context.Background()

	first, err := resolve.Resolve(ctx, "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Source != SourceStore {
		t.Errorf("expected source %q, got %q", SourceStore, first.Source)
	}
	if v, ok := cache.get(domain.NamespaceAlias, "abc123"); !ok || v != "https://example.com/a" {
		t.Errorf("expected alias direction repaired, got %q", v)
	}
	if v, ok := cache.get(domain.NamespaceOriginalURL, "https://example.com/a"); !ok || v != "abc123" {
		t.Errorf("expected original url direction repaired, got %q", v)
	}

	second, err := resolve.Resolve(ctx, "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Source != SourceCache {
		t.Errorf("expected second lookup from cache, got %q", second.Source)
	}
	if second.OriginalURL != first.OriginalURL {
		t.Errorf("cache and store disagree: %q vs %q", second.OriginalURL, first.OriginalURL)
	}
	if n := repo.count("FindByAlias"); n != 1 {
		t.Errorf("expected 1 store read, got %d", n)
	}
}

func TestResolveService_Resolve_NotFound(t *testing.T) {
	repo := newSpyRepo()
	cache := newFakeCache()
	_, resolve := newServices(repo, cache, hexGenerator(t), DefaultOptions())

	_, err := resolve.Resolve(context.Background(), "zzzzzz")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, stores := cache.counts(); stores != 0 {
		t.Errorf("expected no cache writes on a miss, got %d", stores)
	}
}

func TestResolveService_Resolve_MissingInput(t *testing.T) {
	repo := newSpyRepo()
	cache := newFakeCache()
	_, resolve := newServices(repo, cache, hexGenerator(t), DefaultOptions())

	_, err := resolve.Resolve(context.Background(), "")
	if !errors.Is(err, domain.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	if repo.total() != 0 {
		t.Errorf("expected no store access, got %d calls", repo.total())
	}
	if lookups, _ := cache.counts(); lookups != 0 {
		t.Errorf("expected no cache access, got %d lookups", lookups)
	}
}

func TestResolveService_Resolve_CacheUnavailable(t *testing.T) {
	repo := newSpyRepo()
	seed(t, repo.URLRepository, "abc123", "https://example.com/a")
	cache := newFakeCache()
	cache.down = true
	_, resolve := newServices(repo, cache, hexGenerator(t), DefaultOptions())

	res, err := resolve.Resolve(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("expected cache outage to be absorbed, got %v", err)
	}
	if res.OriginalURL != "https://example.com/a" || res.Source != SourceStore {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestResolveService_Resolve_StoreUnavailable(t *testing.T) {
	repo := newSpyRepo()
	repo.err = errors.New("dial tcp: connection refused")
	_, resolve := newServices(repo, newFakeCache(), hexGenerator(t), DefaultOptions())

	_, err := resolve.Resolve(context.Background(), "abc123")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestResolveService_Resolve_StaleCacheAfterClear(t *testing.T) {
	repo := newSpyRepo()
	cache := newFakeCache()
	shorten, resolve := newServices(repo, cache, sequence("a1b2c3"), DefaultOptions())
	ctx := context.Background()

	if _, err := shorten.Shorten(ctx, "https://example.com/a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cache.clear()

	res, err := resolve.Resolve(ctx, "a1b2c3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OriginalURL != "https://example.com/a" {
		t.Errorf("expected store to answer after cache loss, got %q", res.OriginalURL)
	}

	again, err := shorten.Shorten(ctx, "https://example.com/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ShortAlias != "a1b2c3" {
		t.Errorf("expected alias to survive cache loss, got %q", again.ShortAlias)
	}
}

func TestResolveService_Resolve_RedisDownLogsOncePerFailure(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:        s.Addr(),
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	s.Close()

	repo := newSpyRepo()
	seed(t, repo.URLRepository, "abc123", "https://example.com/a")
	_, resolve := newServices(repo, redisCache.NewRedisCache(client), hexGenerator(t), DefaultOptions())

	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	res, err := resolve.Resolve(ctx, "abc123")
	if err != nil {
		t.Fatalf("expected cache outage to be absorbed, got %v", err)
	}
	if res.Source != SourceStore {
		t.Errorf("expected source %q, got %q", SourceStore, res.Source)
	}

	// One failed lookup plus two failed read-repair writes.
	if n := strings.Count(buf.String(), `"level":"WARN"`); n != 3 {
		t.Errorf("expected 3 warnings, got %d:\n%s", n, buf.String())
	}
	if n := strings.Count(buf.String(), "Cache unavailable, falling back to store"); n != 1 {
		t.Errorf("expected the failed lookup logged once, got %d", n)
	}
}
