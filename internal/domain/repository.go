package domain

import "context"

// URLRepository is the durable store and the source of truth for mappings.
// Create must enforce uniqueness of both ShortAlias and OriginalURL and
// report violations as ErrAliasExists or ErrOriginalURLExists.
type URLRepository interface {
	Create(ctx context.Context, url *URL) (*URL, error)
	FindByAlias(ctx context.Context, shortAlias string) (*URL, error)
	FindByOriginalURL(ctx context.Context, originalURL string) (*URL, error)
	AliasExists(ctx context.Context, shortAlias string) (bool, error)
	Close() error
	HealthCheck(ctx context.Context) error
}
