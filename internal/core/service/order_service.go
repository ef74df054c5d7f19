package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketshop/shopcart/internal/core/domain"
	"github.com/rocketshop/shopcart/internal/port"
)

// OrderService reads and deletes the immutable orders produced by
// checkout. Deletion reverses the reservation: every line's quantity
// goes back to available stock in the same transaction that removes
// the order.
type OrderService struct {
	store port.Store
	cache port.Cache
}

func NewOrderService(store port.Store, cache port.Cache) *OrderService {
	return &OrderService{store: store, cache: cache}
}

// FindAll returns every order, most recent first. An empty result set is
// an error by design; callers preferring an empty list adapt at the
// boundary.
func (s *OrderService) FindAll(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.store.Orders().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, domain.ErrNoOrders
	}
	return orders, nil
}

func (s *OrderService) FindAllByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.store.Orders().FindAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, domain.ErrNoOrders
	}
	return orders, nil
}

// FindOne returns the order only if it exists and, for unprivileged
// callers, belongs to userID. Both failure modes report the same
// ErrOrderNotFound so the existence of other users' orders never leaks.
func (s *OrderService) FindOne(ctx context.Context, orderID, userID string, privileged bool) (*domain.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if !privileged && order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// Delete cancels an order and returns its goods to available stock.
// Lines whose product has since left the catalog are skipped: history
// outlives catalog entries and there is no stock row to restore.
func (s *OrderService) Delete(ctx context.Context, orderID, userID string, privileged bool) error {
	var products []string
	err := s.store.Atomic(ctx, func(tx port.Store) error {
		order, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}
		if !privileged && order.UserID != userID {
			return domain.ErrOrderNotFound
		}

		if err := releaseOrderLines(ctx, tx, order, &products); err != nil {
			return err
		}
		if err := tx.Orders().Delete(ctx, orderID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateProducts(ctx, products)
	return nil
}

// DeleteAll removes every order, restoring stock for each line. Admin
// only; carried over from the catalog-management surface.
func (s *OrderService) DeleteAll(ctx context.Context) error {
	var products []string
	err := s.store.Atomic(ctx, func(tx port.Store) error {
		orders, err := tx.Orders().FindAll(ctx)
		if err != nil {
			return fmt.Errorf("find orders: %w", err)
		}
		for i := range orders {
			if err := releaseOrderLines(ctx, tx, &orders[i], &products); err != nil {
				return err
			}
			if err := tx.Orders().Delete(ctx, orders[i].ID); err != nil {
				return fmt.Errorf("delete order: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateProducts(ctx, products)
	return nil
}

func releaseOrderLines(ctx context.Context, tx port.Store, order *domain.Order, products *[]string) error {
	for _, item := range order.Items {
		_, err := releaseStock(ctx, tx, item.ProductID, item.Quantity)
		if errors.Is(err, domain.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		*products = append(*products, item.ProductID)
	}
	return nil
}

func (s *OrderService) invalidateProducts(ctx context.Context, ids []string) {
	if s.cache == nil {
		return
	}
	for _, id := range ids {
		_ = s.cache.InvalidateProduct(ctx, id)
	}
}
