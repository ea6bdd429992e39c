package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sp3dr4/hexlink/internal/domain"
	"github.com/sp3dr4/hexlink/internal/infrastructure/schema"
)

// Names reported in pq.Error.Constraint; the original URL one is a unique
// expression index rather than a table constraint.
const (
	constraintShortAlias  = "urls_short_alias_key"
	constraintOriginalURL = "urls_original_url_key"
)

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Open connects to PostgreSQL and applies the schema migrations.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(schema.DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := schema.Migrate(db.DB, schema.DriverPostgres); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func (r *URLRepository) Create(ctx context.Context, url *domain.URL) (*domain.URL, error) {
	query := `
		INSERT INTO urls (short_alias, original_url, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, short_alias, original_url, created_at
	`

	createdAt := url.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var result domain.URL
	err := r.db.QueryRowxContext(ctx, query, url.ShortAlias, url.OriginalURL, createdAt).StructScan(&result)
	if err != nil {
		return nil, r.handlePostgreSQLError(err, "create URL")
	}

	slog.Debug("URL created successfully", "short_alias", result.ShortAlias, "id", result.ID)
	return &result, nil
}

func (r *URLRepository) FindByAlias(ctx context.Context, shortAlias string) (*domain.URL, error) {
	var url domain.URL
	query := `SELECT id, short_alias, original_url, created_at FROM urls WHERE short_alias = $1`

	if err := r.db.GetContext(ctx, &url, query, shortAlias); err != nil {
		return nil, r.handlePostgreSQLError(err, "find URL by alias")
	}

	return &url, nil
}

func (r *URLRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*domain.URL, error) {
	var url domain.URL
	// md5 matches the unique index; the second predicate rules out digest collisions.
	query := `SELECT id, short_alias, original_url, created_at FROM urls WHERE md5(original_url) = md5($1) AND original_url = $1`

	if err := r.db.GetContext(ctx, &url, query, originalURL); err != nil {
		return nil, r.handlePostgreSQLError(err, "find URL by original url")
	}

	return &url, nil
}

func (r *URLRepository) AliasExists(ctx context.Context, shortAlias string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM urls WHERE short_alias = $1)`

	if err := r.db.GetContext(ctx, &exists, query, shortAlias); err != nil {
		return false, r.handlePostgreSQLError(err, "check alias existence")
	}

	return exists, nil
}

// handlePostgreSQLError converts PostgreSQL-specific errors to domain errors
func (r *URLRepository) handlePostgreSQLError(err error, operation string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23505" { // unique_violation
			switch pqErr.Constraint {
			case constraintShortAlias:
				return domain.ErrAliasExists
			case constraintOriginalURL:
				return domain.ErrOriginalURLExists
			}
		}

		slog.Error("PostgreSQL error",
			"operation", operation,
			"code", pqErr.Code,
			"message", pqErr.Message,
			"detail", pqErr.Detail,
		)
		return fmt.Errorf("%w: %s: database error [%s]: %s", domain.ErrStoreUnavailable, operation, pqErr.Code, pqErr.Message)
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
