package service

import (
	"context"

	"github.com/rocketshop/shopcart/internal/core/domain"
	"github.com/rocketshop/shopcart/internal/port"
)

// InventoryLedger owns the stock counter for every product. Reserve and
// Release are its only primitives; every higher-level flow (add, update,
// remove, clear, checkout, cancel) is a combination of these two calls
// plus a line-item mutation. The consistency argument reduces to: for
// every unit of quantity sitting in a non-terminal cart or order line,
// exactly one unit has been decremented from the ledger.
type InventoryLedger struct {
	store port.Store
	cache port.Cache
}

func NewInventoryLedger(store port.Store, cache port.Cache) *InventoryLedger {
	return &InventoryLedger{store: store, cache: cache}
}

// Reserve decrements available stock by qty and returns the remaining
// stock. Fails with domain.ErrInvalidQuantity, domain.ErrProductNotFound
// or *domain.InsufficientStockError; on failure stock is untouched.
func (l *InventoryLedger) Reserve(ctx context.Context, productID string, qty int) (int, error) {
	var remaining int
	err := l.store.Atomic(ctx, func(tx port.Store) error {
		var err error
		remaining, err = reserveStock(ctx, tx, productID, qty)
		return err
	})
	if err != nil {
		return 0, err
	}
	l.invalidate(ctx, productID)
	return remaining, nil
}

// Release returns qty units to available stock. There is no upper bound
// check: a release always mirrors a prior reserve.
func (l *InventoryLedger) Release(ctx context.Context, productID string, qty int) (int, error) {
	var remaining int
	err := l.store.Atomic(ctx, func(tx port.Store) error {
		var err error
		remaining, err = releaseStock(ctx, tx, productID, qty)
		return err
	})
	if err != nil {
		return 0, err
	}
	l.invalidate(ctx, productID)
	return remaining, nil
}

func (l *InventoryLedger) invalidate(ctx context.Context, productID string) {
	if l.cache != nil {
		_ = l.cache.InvalidateProduct(ctx, productID)
	}
}

// reserveStock and releaseStock run against whichever Store they are
// handed, so the cart and order engines can call them on a
// transaction-scoped store inside Atomic.

func reserveStock(ctx context.Context, s port.Store, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	return s.Products().ReserveStock(ctx, productID, qty)
}

func releaseStock(ctx context.Context, s port.Store, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	return s.Products().ReleaseStock(ctx, productID, qty)
}
