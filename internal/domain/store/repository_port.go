package store

import (
	"context"
	"errors"

	common "shoporia/internal/domain/common"
)

// Patch represents partial updates to descriptive fields. Counters and
// settings move only through their dedicated operations.
type Patch struct {
	Name        *string
	Category    *string
	Description *string
}

// Paging aliases
type CursorPage = common.CursorPage
type CursorPageResult = common.CursorPageResult[Store]

// Repository is the persistence port for Store. The Increment* methods must
// be atomic at the storage layer; counters are never set directly.
type Repository interface {
	// Queries
	GetByID(ctx context.Context, id string) (Store, error)
	GetBySlug(ctx context.Context, slug string) (Store, error)
	GetByOwner(ctx context.Context, ownerID string) (Store, error)
	ListActive(ctx context.Context, cpage CursorPage) (CursorPageResult, error)
	ListByCategory(ctx context.Context, category string, cpage CursorPage) (CursorPageResult, error)
	// SearchByNamePrefix is a case-sensitive name-field range scan.
	SearchByNamePrefix(ctx context.Context, term string, limit int) ([]Store, error)

	// Commands
	Create(ctx context.Context, s Store) error
	Save(ctx context.Context, s Store) error
	Delete(ctx context.Context, id string) error
	IncrementProductCount(ctx context.Context, id string, delta int) error
	IncrementOrderCount(ctx context.Context, id string, delta int) error
}

// Standard repository errors
var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)
