package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/sp3dr4/hexlink/internal/domain"
	"github.com/sp3dr4/hexlink/internal/infrastructure/schema"
)

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Open connects to the database file at path, creating its directory when
// needed, and applies the schema migrations.
func Open(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect(schema.DriverSQLite, path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := schema.Migrate(db.DB, schema.DriverSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func (r *URLRepository) Create(ctx context.Context, url *domain.URL) (*domain.URL, error) {
	query := `
		INSERT INTO urls (short_alias, original_url, created_at)
		VALUES (:short_alias, :original_url, :created_at)
	`

	created := *url
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.NamedExecContext(ctx, query, &created)
	if err != nil {
		return nil, r.handleSQLiteError(err, "create URL")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, r.handleSQLiteError(err, "read inserted id")
	}
	created.ID = id

	return &created, nil
}

func (r *URLRepository) FindByAlias(ctx context.Context, shortAlias string) (*domain.URL, error) {
	var url domain.URL
	query := `SELECT id, short_alias, original_url, created_at FROM urls WHERE short_alias = ?`

	if err := r.db.GetContext(ctx, &url, query, shortAlias); err != nil {
		return nil, r.handleSQLiteError(err, "find URL by alias")
	}

	return &url, nil
}

func (r *URLRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*domain.URL, error) {
	var url domain.URL
	query := `SELECT id, short_alias, original_url, created_at FROM urls WHERE original_url = ?`

	if err := r.db.GetContext(ctx, &url, query, originalURL); err != nil {
		return nil, r.handleSQLiteError(err, "find URL by original url")
	}

	return &url, nil
}

func (r *URLRepository) AliasExists(ctx context.Context, shortAlias string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM urls WHERE short_alias = ?)`

	if err := r.db.GetContext(ctx, &exists, query, shortAlias); err != nil {
		return false, r.handleSQLiteError(err, "check alias existence")
	}

	return exists, nil
}

// handleSQLiteError converts SQLite-specific errors to domain errors
func (r *URLRepository) handleSQLiteError(err error, operation string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, "urls.short_alias"):
			return domain.ErrAliasExists
		case strings.Contains(msg, "urls.original_url"):
			return domain.ErrOriginalURLExists
		}
	}

	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, operation, err)
}

func (r *URLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *URLRepository) HealthCheck(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection is nil")
	}
	return r.db.PingContext(ctx)
}
