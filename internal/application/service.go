package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sp3dr4/hexlink/internal/domain"
	"github.com/sp3dr4/hexlink/internal/pkg/logging"
	"github.com/sp3dr4/hexlink/internal/pkg/metrics"
)

const (
	DefaultCacheTTL    = time.Hour
	DefaultMaxAttempts = 50
)

// Lookup sources reported by ResolveResult.
const (
	SourceCache = "cache"
	SourceStore = "store"
)

// Options tunes the shorten and resolve services.
type Options struct {
	CacheTTL    time.Duration
	MaxAttempts int
}

func DefaultOptions() Options {
	return Options{
		CacheTTL:    DefaultCacheTTL,
		MaxAttempts: DefaultMaxAttempts,
	}
}

func (o Options) withDefaults() Options {
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o
}

// mappingCache wraps domain.Cache so that no cache failure reaches a caller:
// unavailable lookups degrade to misses and failed writes are only logged.
type mappingCache struct {
	cache   domain.Cache
	ttl     time.Duration
	metrics metrics.Registry
}

func (c mappingCache) lookup(ctx context.Context, ns domain.Namespace, key string) (string, bool) {
	res := c.cache.Lookup(ctx, ns, key)
	c.metrics.RecordCacheLookup(string(ns), res.Status.String())

	switch res.Status {
	case domain.CacheHit:
		return res.Value, true
	case domain.CacheUnavailable:
		logging.FromContext(ctx).Warn("Cache unavailable, falling back to store",
			"namespace", ns,
			"error", res.Err,
		)
	}
	return "", false
}

// remember writes both lookup directions for a confirmed durable record.
// The two writes are independent; losing one only costs a future cache hit.
func (c mappingCache) remember(ctx context.Context, url *domain.URL) {
	logger := logging.FromContext(ctx)

	if err := c.cache.Store(ctx, domain.NamespaceAlias, url.ShortAlias, url.OriginalURL, c.ttl); err != nil {
		logger.Warn("Failed to cache alias mapping", "short_alias", url.ShortAlias, "error", err)
	}
	if err := c.cache.Store(ctx, domain.NamespaceOriginalURL, url.OriginalURL, url.ShortAlias, c.ttl); err != nil {
		logger.Warn("Failed to cache original url mapping", "short_alias", url.ShortAlias, "error", err)
	}
}

// storeError keeps domain and context errors intact and marks anything else
// as the store being unavailable.
func storeError(operation string, err error) error {
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, operation, err)
	}
}
