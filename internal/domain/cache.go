package domain

import (
	"context"
	"time"
)

// Namespace separates the two lookup directions held in the cache.
type Namespace string

const (
	// NamespaceAlias keys entries by short alias; values are original URLs.
	NamespaceAlias Namespace = "shortUrl"
	// NamespaceOriginalURL keys entries by original URL; values are aliases.
	NamespaceOriginalURL Namespace = "originalUrl"
)

// Key returns the namespaced cache key.
func (n Namespace) Key(key string) string {
	return string(n) + ":" + key
}

// CacheStatus is the outcome of a cache lookup.
type CacheStatus int

const (
	CacheMiss CacheStatus = iota
	CacheHit
	CacheUnavailable
)

func (s CacheStatus) String() string {
	switch s {
	case CacheHit:
		return "hit"
	case CacheMiss:
		return "miss"
	case CacheUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// CacheResult carries a lookup outcome. Value is set only on CacheHit and
// Err only on CacheUnavailable.
type CacheResult struct {
	Status CacheStatus
	Value  string
	Err    error
}

func Hit(value string) CacheResult {
	return CacheResult{Status: CacheHit, Value: value}
}

func Miss() CacheResult {
	return CacheResult{Status: CacheMiss}
}

func Unavailable(err error) CacheResult {
	return CacheResult{Status: CacheUnavailable, Err: err}
}

// Cache defines the interface for the expiring key-value tier in front of
// the repository. It is an accelerator only: callers treat
// CacheUnavailable as a miss and ignore Store failures.
type Cache interface {
	// Lookup retrieves the value stored under key in the namespace
	Lookup(ctx context.Context, ns Namespace, key string) CacheResult

	// Store writes value under key in the namespace with the given TTL
	Store(ctx context.Context, ns Namespace, key, value string, ttl time.Duration) error

	// Ping checks if the cache is available
	Ping(ctx context.Context) error

	// Close releases the cache resources
	Close() error
}
