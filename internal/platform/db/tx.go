package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txAttempts bounds re-runs of transactions the database aborted.
const txAttempts = 3

// WithTx runs fn inside a repeatable-read transaction. Transactions aborted
// with a serialization failure or deadlock are re-run up to txAttempts times,
// so the loser of a posting race replays against the committed state and gets
// the domain outcome (conflict, already-posted) instead of a raw abort.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = runTx(ctx, pool, fn)
		if err == nil || !RetryableTxError(err) {
			return err
		}
	}
	return fmt.Errorf("platform/db: tx retries exhausted: %w", err)
}

func runTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// RetryableTxError reports whether the database aborted the transaction in a
// way a clean re-run can resolve: serialization failure (40001) or deadlock
// (40P01).
func RetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
