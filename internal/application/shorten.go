package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sp3dr4/hexlink/internal/alias"
	"github.com/sp3dr4/hexlink/internal/domain"
	"github.com/sp3dr4/hexlink/internal/pkg/logging"
	"github.com/sp3dr4/hexlink/internal/pkg/metrics"
)

// ShortenRequest is the payload accepted by the shorten endpoint.
// Only presence is checked; the URL is stored verbatim.
type ShortenRequest struct {
	OriginalURL string `json:"originalUrl" validate:"required" example:"https://example.com/a"`
}

// ShortenResponse is returned by the shorten endpoint.
type ShortenResponse struct {
	ShortURL string `json:"shortUrl" example:"a1b2c3"`
}

type ShortenResult struct {
	ShortAlias  string
	OriginalURL string
	// Created is false when an existing mapping was returned.
	Created bool
}

// sizedGenerator is implemented by generators with a fixed token length.
type sizedGenerator interface {
	Length() int
}

// ShortenService issues aliases. Correctness under concurrent requests
// relies on the repository's uniqueness constraints alone.
type ShortenService struct {
	repo        domain.URLRepository
	cache       mappingCache
	generator   alias.Generator
	maxAttempts int
	metrics     metrics.Registry
}

func NewShortenService(
	repo domain.URLRepository,
	cache domain.Cache,
	generator alias.Generator,
	opts Options,
	registry metrics.Registry,
) *ShortenService {
	opts = opts.withDefaults()
	return &ShortenService{
		repo:        repo,
		cache:       mappingCache{cache: cache, ttl: opts.CacheTTL, metrics: registry},
		generator:   generator,
		maxAttempts: opts.MaxAttempts,
		metrics:     registry,
	}
}

// Shorten returns the alias for originalURL, creating one if the URL has
// never been shortened. Repeated calls with the same string return the
// same alias.
func (s *ShortenService) Shorten(ctx context.Context, originalURL string) (*ShortenResult, error) {
	if originalURL == "" {
		return nil, domain.ErrMissingInput
	}

	existing, err := s.findExisting(ctx, originalURL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.IncURLsDeduplicated()
		return existing, nil
	}

	logger := logging.FromContext(ctx)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate := s.generator.Generate()

		taken, err := s.aliasTaken(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if taken {
			s.metrics.IncAliasCollisions()
			logger.Debug("Alias candidate already taken", "candidate", candidate, "attempt", attempt)
			continue
		}

		url, err := domain.NewURL(candidate, originalURL)
		if err != nil {
			return nil, err
		}

		created, err := s.repo.Create(ctx, url)
		switch {
		case err == nil:
			s.cache.remember(ctx, created)
			s.metrics.IncURLsCreated()
			logger.Info("Created short alias",
				"short_alias", created.ShortAlias,
				"original_url", created.OriginalURL,
				"attempts", attempt,
			)
			return &ShortenResult{
				ShortAlias:  created.ShortAlias,
				OriginalURL: created.OriginalURL,
				Created:     true,
			}, nil

		case errors.Is(err, domain.ErrAliasExists):
			// Another writer took the candidate between the check and the insert.
			s.metrics.IncAliasCollisions()
			logger.Debug("Alias taken at insert, retrying", "candidate", candidate, "attempt", attempt)
			continue

		case errors.Is(err, domain.ErrOriginalURLExists):
			// A concurrent shorten of the same URL won; answer with its alias.
			winner, err := s.repo.FindByOriginalURL(ctx, originalURL)
			if err != nil {
				return nil, storeError("read concurrent mapping", err)
			}
			s.cache.remember(ctx, winner)
			s.metrics.IncURLsDeduplicated()
			return &ShortenResult{ShortAlias: winner.ShortAlias, OriginalURL: winner.OriginalURL}, nil

		default:
			return nil, storeError("create mapping", err)
		}
	}

	s.metrics.IncAliasGenerationExhausted()
	attrs := []any{
		"max_attempts", s.maxAttempts,
		"original_url", originalURL,
	}
	if sized, ok := s.generator.(sizedGenerator); ok {
		attrs = append(attrs, "alias_length", sized.Length(), "token_space", alias.SpaceSize(sized.Length()))
	}
	logger.Warn("Alias generation exhausted, token space may be under pressure", attrs...)
	return nil, fmt.Errorf("%w after %d attempts", domain.ErrGenerationExhausted, s.maxAttempts)
}

// findExisting returns the current mapping for originalURL, or nil if there
// is none. A cache hit is answered without touching the store.
func (s *ShortenService) findExisting(ctx context.Context, originalURL string) (*ShortenResult, error) {
	if shortAlias, ok := s.cache.lookup(ctx, domain.NamespaceOriginalURL, originalURL); ok {
		return &ShortenResult{ShortAlias: shortAlias, OriginalURL: originalURL}, nil
	}

	url, err := s.repo.FindByOriginalURL(ctx, originalURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, storeError("find by original url", err)
	}

	s.cache.remember(ctx, url)
	return &ShortenResult{ShortAlias: url.ShortAlias, OriginalURL: url.OriginalURL}, nil
}

// aliasTaken checks a candidate against the cache and then the store. The
// check is best effort; the insert constraint is what guarantees uniqueness.
func (s *ShortenService) aliasTaken(ctx context.Context, candidate string) (bool, error) {
	if _, ok := s.cache.lookup(ctx, domain.NamespaceAlias, candidate); ok {
		return true, nil
	}

	exists, err := s.repo.AliasExists(ctx, candidate)
	if err != nil {
		return false, storeError("check alias", err)
	}
	return exists, nil
}
