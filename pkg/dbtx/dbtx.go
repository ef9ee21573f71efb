// Package dbtx runs service logic inside a bun transaction.
package dbtx

import (
	"context"
	"database/sql"

	"github.com/mozilla/mozilla-ignite/pkg/results"
	"github.com/uptrace/bun"
)

// RunInTx ensures fn runs within a transaction. A nil db runs fn with a nil
// handle so repositories fall back to their own connection; unit tests rely
// on this with fake repositories.
func RunInTx[S any, F any](
	ctx context.Context,
	db *bun.DB,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	return result, err
}

// AdvisoryLock takes a transaction-scoped Postgres advisory lock on key.
// It is released on commit or rollback.
func AdvisoryLock(ctx context.Context, db bun.IDB, key string) error {
	if db == nil {
		return nil
	}
	_, err := db.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", key).Exec(ctx)
	return err
}
