package firestore

import (
	"context"

	fs "cloud.google.com/go/firestore"

	fscommon "shoporia/internal/adapters/out/firestore/common"
)

// TransactorFS runs a function inside a Firestore transaction. Repositories
// built on the fscommon helpers pick the transaction up from the context.
// Reads must come before writes inside the callback; usecases are written
// in that order.
type TransactorFS struct {
	Client *fs.Client
}

func NewTransactorFS(client *fs.Client) *TransactorFS {
	return &TransactorFS{Client: client}
}

func (t *TransactorFS) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t == nil || t.Client == nil {
		return fn(ctx)
	}
	// Already inside a transaction: join it.
	if _, ok := fscommon.TxFrom(ctx); ok {
		return fn(ctx)
	}
	return t.Client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		return fn(fscommon.CtxWithTx(ctx, tx))
	})
}
