package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Beginner opens transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// MaxAttempts bounds how often WithTx runs fn when PostgreSQL aborts the
// transaction with a serialization failure or deadlock.
const MaxAttempts = 3

var retryBackoff = 25 * time.Millisecond

// WithTx runs fn inside a REPEATABLE READ transaction. fn may be called more
// than once, so it must only touch the database through tx.
func WithTx(ctx context.Context, db Beginner, fn func(pgx.Tx) error) error {
	return WithTxAttempts(ctx, db, MaxAttempts, fn)
}

// WithTxAttempts is WithTx with an explicit attempt bound. Callers whose fn has
// effects outside tx pass 1.
func WithTxAttempts(ctx context.Context, db Beginner, attempts int, fn func(pgx.Tx) error) error {
	if db == nil {
		return errors.New("platform/db: no connection")
	}
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = runOnce(ctx, db, fn)
		if err == nil || !Retryable(err) || attempt == attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}

func runOnce(ctx context.Context, db Beginner, fn func(pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}
	return nil
}

// Retryable reports whether err is a serialization failure (40001) or a
// deadlock (40P01).
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
