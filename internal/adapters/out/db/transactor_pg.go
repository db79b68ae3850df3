package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	dbcommon "shoporia/internal/adapters/out/db/common"
)

// TransactorPG runs a function inside a database transaction. Repositories
// built on dbcommon.GetRunner pick the transaction up from the context.
//
// Transactions run at SERIALIZABLE so that plain SELECTs inside the
// function behave like validated reads: two workflows that read the same
// rows and write conflicting results cannot both commit. Postgres aborts
// one with a serialization failure, which is retried here.
type TransactorPG struct {
	DB *sql.DB
}

func NewTransactorPG(db *sql.DB) *TransactorPG {
	return &TransactorPG{DB: db}
}

// serializationRetries bounds the retry loop for aborted transactions.
const serializationRetries = 3

func (t *TransactorPG) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Already inside a transaction: join it.
	if tx := dbcommon.TxFromCtx(ctx); tx != nil {
		return fn(ctx)
	}
	if t == nil || t.DB == nil {
		return fn(ctx)
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = t.runOnce(ctx, fn)
		if err == nil || !isSerializationFailure(err) || attempt >= serializationRetries {
			return err
		}
		zap.S().Debugf("[tx_pg] serialization failure, retrying attempt=%d", attempt+1)
	}
}

func (t *TransactorPG) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(dbcommon.CtxWithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// isSerializationFailure reports whether err is a Postgres serialization
// failure (40001) or deadlock (40P01), both of which are safe to retry
// from the top of the transaction.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
