package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rocketshop/shopcart/internal/port"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// so every repository method runs unchanged inside or outside Atomic.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type MySQLStore struct {
	db *sql.DB
	q  querier
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db, q: db}
}

func (s *MySQLStore) Products() port.ProductRepository { return &productRepo{q: s.q} }
func (s *MySQLStore) Carts() port.CartRepository       { return &cartRepo{q: s.q} }
func (s *MySQLStore) Orders() port.OrderRepository     { return &orderRepo{q: s.q} }
func (s *MySQLStore) Users() port.UserRepository       { return &userRepo{q: s.q} }

// Atomic runs fn against a transaction-scoped store. Nested calls join
// the enclosing transaction.
func (s *MySQLStore) Atomic(ctx context.Context, fn func(port.Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&MySQLStore{db: s.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
