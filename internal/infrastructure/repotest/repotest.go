// Package repotest holds the behavioural contract every
// domain.URLRepository implementation must satisfy.
package repotest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/hexlink/internal/domain"
)

// Factory returns an empty repository for a single subtest.
type Factory func(t *testing.T) domain.URLRepository

// Run executes the repository contract against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()

	t.Run("create and find by alias", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		url, err := domain.NewURL("a1b2c3", "https://example.com/a")
		require.NoError(t, err)

		created, err := repo.Create(ctx, url)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "a1b2c3", created.ShortAlias)
		assert.Equal(t, "https://example.com/a", created.OriginalURL)
		assert.False(t, created.CreatedAt.IsZero())

		found, err := repo.FindByAlias(ctx, "a1b2c3")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "https://example.com/a", found.OriginalURL)
	})

	t.Run("find by original url", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, &domain.URL{ShortAlias: "00ff00", OriginalURL: "https://example.com/b"})
		require.NoError(t, err)

		found, err := repo.FindByOriginalURL(ctx, "https://example.com/b")
		require.NoError(t, err)
		assert.Equal(t, "00ff00", found.ShortAlias)

		// Exact match only; no normalization.
		_, err = repo.FindByOriginalURL(ctx, "https://example.com/b/")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing records", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.FindByAlias(ctx, "zzzzzz")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.FindByOriginalURL(ctx, "https://nowhere.example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		exists, err := repo.AliasExists(ctx, "zzzzzz")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("alias exists", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, &domain.URL{ShortAlias: "abcdef", OriginalURL: "https://example.com/c"})
		require.NoError(t, err)

		exists, err := repo.AliasExists(ctx, "abcdef")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate alias is rejected", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, &domain.URL{ShortAlias: "123456", OriginalURL: "https://example.com/d"})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &domain.URL{ShortAlias: "123456", OriginalURL: "https://example.com/e"})
		assert.ErrorIs(t, err, domain.ErrAliasExists)

		found, err := repo.FindByAlias(ctx, "123456")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/d", found.OriginalURL)
	})

	t.Run("duplicate original url is rejected", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, &domain.URL{ShortAlias: "aaaaaa", OriginalURL: "https://example.com/f"})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &domain.URL{ShortAlias: "bbbbbb", OriginalURL: "https://example.com/f"})
		assert.ErrorIs(t, err, domain.ErrOriginalURLExists)

		exists, err := repo.AliasExists(ctx, "bbbbbb")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("long original url", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		// Random bytes so the value cannot be compressed below index limits.
		buf := make([]byte, 4096)
		_, err := rand.Read(buf)
		require.NoError(t, err)
		long := "https://example.com/" + hex.EncodeToString(buf)

		_, err = repo.Create(ctx, &domain.URL{ShortAlias: "f00d00", OriginalURL: long})
		require.NoError(t, err)

		found, err := repo.FindByOriginalURL(ctx, long)
		require.NoError(t, err)
		assert.Equal(t, "f00d00", found.ShortAlias)
		assert.Equal(t, long, found.OriginalURL)

		_, err = repo.Create(ctx, &domain.URL{ShortAlias: "f00d01", OriginalURL: long})
		assert.ErrorIs(t, err, domain.ErrOriginalURLExists)
	})

	t.Run("concurrent creates with the same alias", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const writers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)

		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repo.Create(ctx, &domain.URL{
					ShortAlias:  "c0ffee",
					OriginalURL: fmt.Sprintf("https://example.com/race/%d", i),
				})

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case assert.ErrorIs(t, err, domain.ErrAliasExists):
					conflicts++
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, writers-1, conflicts)
	})

	t.Run("health check", func(t *testing.T) {
		repo := newRepo(t)
		assert.NoError(t, repo.HealthCheck(context.Background()))
	})
}
