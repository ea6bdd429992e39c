package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/hexlink/internal/domain"
	"github.com/sp3dr4/hexlink/internal/infrastructure/repotest"
)

func newTestRepository(t *testing.T) *URLRepository {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "hexlink.db"))
	require.NoError(t, err)

	repo := NewURLRepository(db)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepository_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) domain.URLRepository {
		return newTestRepository(t)
	})
}

func TestSQLiteRepository_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hexlink.db")

	db, err := Open(path)
	require.NoError(t, err)
	_, err = NewURLRepository(db).Create(context.Background(), &domain.URL{ShortAlias: "abc123", OriginalURL: "https://example.com"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	repo := NewURLRepository(db)
	defer repo.Close()

	found, err := repo.FindByAlias(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", found.OriginalURL)
}

func TestSQLiteRepository_ClosedDatabase(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Close())

	_, err := repo.FindByAlias(context.Background(), "abc123")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	assert.Error(t, repo.HealthCheck(context.Background()))
}
