package order

import (
	"context"
	"errors"

	common "shoporia/internal/domain/common"
)

// Filter narrows store-scoped listings.
type Filter struct {
	Status *Status
}

// Paging aliases
type CursorPage = common.CursorPage
type CursorPageResult = common.CursorPageResult[Order]

// Repository is the persistence port for Order. Mutating methods must honor
// a transaction carried in the context (see usecase.Transactor).
type Repository interface {
	// Queries
	GetByID(ctx context.Context, id string) (Order, error)
	// GetByNumber is a point lookup on the secondary key; first match wins.
	GetByNumber(ctx context.Context, orderNumber string) (Order, error)
	ListByCustomer(ctx context.Context, customerID string, cpage CursorPage) (CursorPageResult, error)
	ListByStore(ctx context.Context, storeID string, filter Filter, cpage CursorPage) (CursorPageResult, error)
	// ListAllByStore is the full scan backing store-level stats. Cost grows
	// with the store's order count.
	ListAllByStore(ctx context.Context, storeID string) ([]Order, error)
	ListRecent(ctx context.Context, storeID string, limit int) ([]Order, error)

	// Commands
	Create(ctx context.Context, o Order) error
	Save(ctx context.Context, o Order) error
}

// Standard repository errors
var (
	ErrNotFound = errors.New("order: not found")
	ErrConflict = errors.New("order: conflict")
)
