package product

import (
	"context"
	"errors"

	common "shoporia/internal/domain/common"
)

// Patch represents partial updates to catalog fields. A nil field means
// "no change". Counters and inventory are excluded on purpose; they move
// only through the dedicated operations.
type Patch struct {
	Name           *string
	Description    *string
	Category       *string
	Images         *[]string
	HasVariants    *bool
	Variants       *[]Variant
	Featured       *bool
	Price          *int
	CompareAtPrice *int
	TrackInventory *bool
}

// Paging aliases
type CursorPage = common.CursorPage
type CursorPageResult = common.CursorPageResult[Product]

// Repository is the persistence port for Product.
//
// SetInventory and the Increment* methods are write-only so they can run in
// the write phase of a storage transaction; the increments must be atomic at
// the storage layer (field transform / arithmetic update), never
// read-modify-write.
type Repository interface {
	// Queries
	GetByID(ctx context.Context, id string) (Product, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
	ListByStore(ctx context.Context, storeID string, onlyActive bool, cpage CursorPage) (CursorPageResult, error)
	ListByCategory(ctx context.Context, category string, cpage CursorPage) (CursorPageResult, error)
	ListFeatured(ctx context.Context, limit int) ([]Product, error)
	ListBestSelling(ctx context.Context, storeID string, limit int) ([]Product, error)
	// SearchByNamePrefix is a case-sensitive name-field range scan, not
	// full-text search. Both storage backends share this semantic.
	SearchByNamePrefix(ctx context.Context, term string, limit int) ([]Product, error)

	// Commands
	Create(ctx context.Context, p Product) error
	Save(ctx context.Context, p Product) error
	Delete(ctx context.Context, id string) error
	SetInventory(ctx context.Context, id string, quantity int, status Status) error
	IncrementSoldCount(ctx context.Context, id string, by int) error
	IncrementViewCount(ctx context.Context, id string) error
}

// Standard repository errors
var (
	ErrNotFound = errors.New("product: not found")
	ErrConflict = errors.New("product: conflict")
)
