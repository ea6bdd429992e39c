package application

import (
	"context"
	"errors"

	"github.com/sp3dr4/hexlink/internal/domain"
	"github.com/sp3dr4/hexlink/internal/pkg/metrics"
)

type ResolveResult struct {
	OriginalURL string
	// Source is SourceCache or SourceStore.
	Source string
}

// ResolveService maps aliases back to their original URLs, cache first.
type ResolveService struct {
	repo    domain.URLRepository
	cache   mappingCache
	metrics metrics.Registry
}

func NewResolveService(
	repo domain.URLRepository,
	cache domain.Cache,
	opts Options,
	registry metrics.Registry,
) *ResolveService {
	opts = opts.withDefaults()
	return &ResolveService{
		repo:    repo,
		cache:   mappingCache{cache: cache, ttl: opts.CacheTTL, metrics: registry},
		metrics: registry,
	}
}

// Resolve returns the original URL for shortAlias. The store is the
// authority for ErrNotFound; a miss never writes to the cache.
func (s *ResolveService) Resolve(ctx context.Context, shortAlias string) (*ResolveResult, error) {
	if shortAlias == "" {
		return nil, domain.ErrMissingInput
	}

	if originalURL, ok := s.cache.lookup(ctx, domain.NamespaceAlias, shortAlias); ok {
		s.metrics.IncURLsResolved(SourceCache)
		return &ResolveResult{OriginalURL: originalURL, Source: SourceCache}, nil
	}

	url, err := s.repo.FindByAlias(ctx, shortAlias)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("find by alias", err)
	}

	// Read-repair
	s.cache.remember(ctx, url)

	s.metrics.IncURLsResolved(SourceStore)
	return &ResolveResult{OriginalURL: url.OriginalURL, Source: SourceStore}, nil
}
