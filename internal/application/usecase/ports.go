package usecase

import (
	"context"

	product "shoporia/internal/domain/product"
)

// Transactor is the outbound port wrapping multi-document workflows in one
// storage transaction. Repositories pick the transaction up from the context
// (Firestore: RunTransaction; Postgres: sql.Tx).
//
// Inside fn, perform all reads before the first write: the Firestore
// implementation rejects reads issued after a buffered write.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EmailSender is the outbound port for notification mail. Implementations
// are best-effort; callers log and continue on failure.
type EmailSender interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// ImageStore is the outbound port for product image objects.
type ImageStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (url string, err error)
	Remove(ctx context.Context, url string) error
}

// ProductSearcher is the pluggable search capability. The default wiring is
// the repository's case-sensitive name-prefix range scan; a real search
// engine can be substituted without touching the core.
type ProductSearcher interface {
	SearchProducts(ctx context.Context, term string, limit int) ([]product.Product, error)
}
