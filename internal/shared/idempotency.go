package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict is returned when a key was already claimed.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// execer is the slice of pgxpool.Pool the key store needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// IdempotencyStore records processed request keys in idempotency_keys.
// A nil store, or one built without a pool, claims nothing and cleans nothing.
type IdempotencyStore struct {
	db  execer
	now func() time.Time
}

// NewIdempotencyStore returns a store backed by pool.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	if pool == nil {
		return &IdempotencyStore{now: time.Now}
	}
	return &IdempotencyStore{db: pool, now: time.Now}
}

func (s *IdempotencyStore) ready() bool {
	return s != nil && s.db != nil
}

func (s *IdempotencyStore) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// CheckAndInsert claims key for module. A key claimed before, by any module,
// yields ErrIdempotencyConflict.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if !s.ready() {
		return errors.New("idempotency store not initialised")
	}
	switch {
	case key == "":
		return NewValidationError("idempotency_key", "is required")
	case module == "":
		return errors.New("idempotency: module required")
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)`,
		key, module, s.clock())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrIdempotencyConflict
	}
	if err != nil {
		return fmt.Errorf("idempotency: claim %q: %w", key, err)
	}
	return nil
}

// Delete releases key so a failed request can be retried.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if !s.ready() || key == "" {
		return nil
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key); err != nil {
		return fmt.Errorf("idempotency: release %q: %w", key, err)
	}
	return nil
}

// Cleanup drops keys claimed more than olderThan ago and reports how many
// rows went.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if !s.ready() {
		return 0, nil
	}
	if olderThan <= 0 {
		return 0, errors.New("idempotency: retention must be positive")
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, s.clock().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("idempotency: cleanup: %w", err)
	}
	return tag.RowsAffected(), nil
}
