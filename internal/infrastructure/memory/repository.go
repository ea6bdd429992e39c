package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sp3dr4/hexlink/internal/domain"
)

// URLRepository keeps mappings in process memory. Both alias and original
// URL are unique, mirroring the constraints of the SQL schema.
type URLRepository struct {
	byAlias    map[string]*domain.URL
	byOriginal map[string]*domain.URL
	nextID     int64
	mu         sync.RWMutex
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		byAlias:    make(map[string]*domain.URL),
		byOriginal: make(map[string]*domain.URL),
		nextID:     1,
	}
}

func (r *URLRepository) Create(ctx context.Context, url *domain.URL) (*domain.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAlias[url.ShortAlias]; exists {
		return nil, domain.ErrAliasExists
	}
	if _, exists := r.byOriginal[url.OriginalURL]; exists {
		return nil, domain.ErrOriginalURLExists
	}

	createdAt := url.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	// Store a copy so callers cannot mutate the stored record
	created := &domain.URL{
		ID:          r.nextID,
		ShortAlias:  url.ShortAlias,
		OriginalURL: url.OriginalURL,
		CreatedAt:   createdAt,
	}
	r.nextID++

	r.byAlias[created.ShortAlias] = created
	r.byOriginal[created.OriginalURL] = created

	out := *created
	return &out, nil
}

func (r *URLRepository) FindByAlias(ctx context.Context, shortAlias string) (*domain.URL, error) {
	return r.find(ctx, r.byAlias, shortAlias)
}

func (r *URLRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*domain.URL, error) {
	return r.find(ctx, r.byOriginal, originalURL)
}

func (r *URLRepository) find(ctx context.Context, index map[string]*domain.URL, key string) (*domain.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, exists := index[key]
	if !exists {
		return nil, domain.ErrNotFound
	}

	out := *url
	return &out, nil
}

func (r *URLRepository) AliasExists(ctx context.Context, shortAlias string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byAlias[shortAlias]
	return exists, nil
}

// Len returns the number of stored mappings.
func (r *URLRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byAlias)
}

func (r *URLRepository) Close() error {
	return nil
}

func (r *URLRepository) HealthCheck(ctx context.Context) error {
	return nil
}
