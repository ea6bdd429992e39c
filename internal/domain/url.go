package domain

import (
	"errors"
	"time"
)

var (
	ErrMissingInput        = errors.New("missing input")
	ErrNotFound            = errors.New("url not found")
	ErrGenerationExhausted = errors.New("alias generation exhausted")
	ErrStoreUnavailable    = errors.New("store unavailable")

	// Store conflict signals. Services retry or re-read on these; they are
	// never returned to callers of the application layer.
	ErrAliasExists       = errors.New("short alias already exists")
	ErrOriginalURLExists = errors.New("original url already exists")
)

// URL maps a short alias to the URL it was issued for. Mappings are
// created once and never updated.
type URL struct {
	ID          int64     `db:"id" json:"id"`
	ShortAlias  string    `db:"short_alias" json:"shortAlias"`
	OriginalURL string    `db:"original_url" json:"originalUrl"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

func NewURL(shortAlias, originalURL string) (*URL, error) {
	if shortAlias == "" || originalURL == "" {
		return nil, ErrMissingInput
	}

	return &URL{
		ShortAlias:  shortAlias,
		OriginalURL: originalURL,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
