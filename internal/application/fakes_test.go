package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sp3dr4/hexlink/internal/alias"
	"github.com/sp3dr4/hexlink/internal/domain"
	"github.com/sp3dr4/hexlink/internal/infrastructure/memory"
	"github.com/sp3dr4/hexlink/internal/pkg/metrics"
)

var errCacheDown = errors.New("cache: connection refused")

// fakeCache is an in-memory domain.Cache that can be switched off.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
	lookups int
	stores  int
	down    bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[string]string),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *fakeCache) Lookup(_ context.Context, ns domain.Namespace, key string) domain.CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++
	if c.down {
		return domain.Unavailable(errCacheDown)
	}
	value, ok := c.entries[ns.Key(key)]
	if !ok {
		return domain.Miss()
	}
	return domain.Hit(value)
}

func (c *fakeCache) Store(_ context.Context, ns domain.Namespace, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stores++
	if c.down {
		return errCacheDown
	}
	c.entries[ns.Key(key)] = value
	c.ttls[ns.Key(key)] = ttl
	return nil
}

func (c *fakeCache) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return errCacheDown
	}
	return nil
}

func (c *fakeCache) Close() error { return nil }

func (c *fakeCache) get(ns domain.Namespace, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[ns.Key(key)]
	return v, ok
}

func (c *fakeCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
	c.ttls = make(map[string]time.Duration)
}

func (c *fakeCache) counts() (lookups, stores int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookups, c.stores
}

// spyRepo counts calls on top of the memory repository and can inject failures.
type spyRepo struct {
	*memory.URLRepository

	mu    sync.Mutex
	calls map[string]int
	// createErrs are returned, in order, by the first Create calls.
	createErrs []error
	// hideOriginal makes that many FindByOriginalURL calls report not found.
	hideOriginal int
	// err fails every call when set.
	err error
}

func newSpyRepo() *spyRepo {
	return &spyRepo{
		URLRepository: memory.NewURLRepository(),
		calls:         make(map[string]int),
	}
}

func (r *spyRepo) record(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
	return r.err
}

func (r *spyRepo) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *spyRepo) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *spyRepo) Create(ctx context.Context, url *domain.URL) (*domain.URL, error) {
	if err := r.record("Create"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		r.mu.Unlock()
		return nil, err
	}
	r.mu.Unlock()
	return r.URLRepository.Create(ctx, url)
}

func (r *spyRepo) FindByAlias(ctx context.Context, shortAlias string) (*domain.URL, error) {
	if err := r.record("FindByAlias"); err != nil {
		return nil, err
	}
	return r.URLRepository.FindByAlias(ctx, shortAlias)
}

func (r *spyRepo) FindByOriginalURL(ctx context.Context, originalURL string) (*domain.URL, error) {
	if err := r.record("FindByOriginalURL"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	if r.hideOriginal > 0 {
		r.hideOriginal--
		r.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	r.mu.Unlock()
	return r.URLRepository.FindByOriginalURL(ctx, originalURL)
}

func (r *spyRepo) AliasExists(ctx context.Context, shortAlias string) (bool, error) {
	if err := r.record("AliasExists"); err != nil {
		return false, err
	}
	return r.URLRepository.AliasExists(ctx, shortAlias)
}

// sequence yields tokens in order, repeating the last one forever.
func sequence(tokens ...string) alias.Generator {
	var mu sync.Mutex
	i := 0
	return alias.Func(func() string {
		mu.Lock()
		defer mu.Unlock()
		tok := tokens[min(i, len(tokens)-1)]
		i++
		return tok
	})
}

func hexGenerator(t *testing.T) alias.Generator {
	t.Helper()
	gen, err := alias.NewHexGenerator(alias.DefaultLength)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	return gen
}

func newServices(repo domain.URLRepository, cache domain.Cache, gen alias.Generator, opts Options) (*ShortenService, *ResolveService) {
	registry := metrics.NewNoOpRegistry()
	return NewShortenService(repo, cache, gen, opts, registry), NewResolveService(repo, cache, opts, registry)
}

func seed(t *testing.T, repo domain.URLRepository, shortAlias, originalURL string) {
	t.Helper()
	url, err := domain.NewURL(shortAlias, originalURL)
	if err != nil {
		t.Fatalf("invalid seed: %v", err)
	}
	if _, err := repo.Create(context.Background(), url); err != nil {
		t.Fatalf("failed to seed %s: %v", shortAlias, err)
	}
}
