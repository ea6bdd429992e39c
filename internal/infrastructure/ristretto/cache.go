// Package ristretto provides an in-process cache for single-instance
// deployments that run without Redis.
package ristretto

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/sp3dr4/hexlink/internal/domain"
)

var errClosed = errors.New("cache is closed")

type Cache struct {
	client *ristretto.Cache
	closed atomic.Bool
}

// NewCache creates a cache holding up to maxEntries mappings per process.
func NewCache(maxEntries int64) (*Cache, error) {
	if maxEntries <= 0 {
		return nil, errors.New("max entries must be positive")
	}

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10, // keys tracked for admission
		MaxCost:     maxEntries,      // every entry costs 1
		BufferItems: 64,

		// Without this the per-item storage overhead is added to the cost
		// and MaxCost would hold a small fraction of maxEntries.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	return &Cache{client: client}, nil
}

func (c *Cache) Lookup(_ context.Context, ns domain.Namespace, key string) domain.CacheResult {
	if c.closed.Load() {
		return domain.Unavailable(errClosed)
	}

	val, ok := c.client.Get(ns.Key(key))
	if !ok {
		return domain.Miss()
	}

	s, ok := val.(string)
	if !ok {
		return domain.Miss()
	}
	return domain.Hit(s)
}

func (c *Cache) Store(_ context.Context, ns domain.Namespace, key, value string, ttl time.Duration) error {
	if c.closed.Load() {
		return errClosed
	}

	c.client.SetWithTTL(ns.Key(key), value, 1, ttl)
	// Sets are buffered; wait so a following Lookup observes the write.
	c.client.Wait()
	return nil
}

func (c *Cache) Ping(_ context.Context) error {
	if c.closed.Load() {
		return errClosed
	}
	return nil
}

func (c *Cache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.client.Close()
	}
	return nil
}
