package cache

import (
	"context"
	"time"

	"github.com/sp3dr4/hexlink/internal/domain"
)

// NoOpCache is a no-operation cache implementation that does nothing
// Used when caching is disabled
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Lookup(_ context.Context, _ domain.Namespace, _ string) domain.CacheResult {
	return domain.Miss()
}

func (c *NoOpCache) Store(_ context.Context, _ domain.Namespace, _, _ string, _ time.Duration) error {
	return nil
}

func (c *NoOpCache) Ping(_ context.Context) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
