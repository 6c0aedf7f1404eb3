package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	txs      []*fakeTx
	beginErr error
}

func (b *fakeBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	return tx, nil
}

func init() {
	retryBackoff = time.Millisecond
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	b := &fakeBeginner{}
	require.NoError(t, WithTx(context.Background(), b, func(pgx.Tx) error { return nil }))
	require.Len(t, b.txs, 1)
	assert.True(t, b.txs[0].committed)
	assert.False(t, b.txs[0].rolledBack)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	b := &fakeBeginner{}
	boom := errors.New("boom")
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Len(t, b.txs, 1)
	assert.True(t, b.txs[0].rolledBack)
	assert.False(t, b.txs[0].committed)
}

func TestWithTxRetriesSerializationFailure(t *testing.T) {
	b := &fakeBeginner{}
	calls := 0
	err := WithTx(context.Background(), b, func(pgx.Tx) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, b.txs[2].committed)
}

func TestWithTxGivesUpAfterMaxAttempts(t *testing.T) {
	b := &fakeBeginner{}
	calls := 0
	err := WithTx(context.Background(), b, func(pgx.Tx) error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})
	require.Error(t, err)
	assert.True(t, Retryable(err))
	assert.Equal(t, MaxAttempts, calls)
}

func TestWithTxWrapsBeginError(t *testing.T) {
	b := &fakeBeginner{beginErr: errors.New("pool closed")}
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return nil })
	require.ErrorContains(t, err, "begin tx")
	assert.False(t, Retryable(errors.New("plain")))
}

func TestWithTxAttemptsOneDoesNotRetry(t *testing.T) {
	b := &fakeBeginner{}
	calls := 0
	err := WithTxAttempts(context.Background(), b, 1, func(pgx.Tx) error {
		calls++
		return &pgconn.PgError{Code: "40001"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
