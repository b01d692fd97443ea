package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrStockConflict is returned when a conditional stock decrement matches no row.
var ErrStockConflict = errors.New("stock conflict")

// Store is the unit of work over the shared database handle.
type Store struct{ db *sqlx.DB }

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *sqlx.DB { return s.db }

type txKey struct{}

// RunAtomic runs fn inside one transaction. Repositories called with the
// derived context join it. A transaction already present in ctx is reused, so
// nested calls commit once at the outermost level.
func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// no-op after a successful commit
	defer func() { _ = tx.Rollback() }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// executor returns the transaction bound to ctx, or db outside of one.
func executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

func insertReturningID(ctx context.Context, ex sqlx.ExtContext, query string, args ...any) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, ex, &id, ex.Rebind(query+" RETURNING id"), args...)
	return id, err
}
