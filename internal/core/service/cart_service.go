package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rocketshop/shopcart/internal/core/domain"
	"github.com/rocketshop/shopcart/internal/port"
)

const checkoutGuardTTL = 30 * time.Second

// CartService owns the single ACTIVE cart per shopper. Every mutation
// reserves or releases stock through the ledger primitives before the
// line-item write, and both halves run inside one Atomic so a failed
// reservation leaves the cart untouched.
type CartService struct {
	store  port.Store
	cache  port.Cache
	events port.EventPublisher
}

func NewCartService(store port.Store, cache port.Cache, events port.EventPublisher) *CartService {
	return &CartService{store: store, cache: cache, events: events}
}

// GetOrCreateActiveCart returns the shopper's ACTIVE cart, creating an
// empty one if none exists. Idempotent: repeated calls without mutations
// in between return the same cart.
func (s *CartService) GetOrCreateActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var out *domain.Cart
	err := s.store.Atomic(ctx, func(tx port.Store) error {
		cart, err := getOrCreateActiveCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getOrCreateActiveCart(ctx context.Context, tx port.Store, userID string) (*domain.Cart, error) {
	cart, err := tx.Carts().FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find active cart: %w", err)
	}
	if cart != nil {
		return cart, nil
	}

	now := time.Now()
	cart = &domain.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    domain.CartStatusActive,
		Total:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Carts().Create(ctx, cart); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

// AddItem reserves qty units of the product and adds them to the
// shopper's active cart. Re-adding a product increments the existing
// line; the original price snapshot persists even if the catalog price
// changed since.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int) (*domain.Cart, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var out *domain.Cart
	err := s.store.Atomic(ctx, func(tx port.Store) error {
		cart, err := getOrCreateActiveCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		product, err := tx.Products().FindByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("find product: %w", err)
		}
		if product == nil {
			return domain.ErrProductNotFound
		}

		// Reservation happens-before the line write; if it fails the
		// transaction rolls back with no partial mutation.
		if _, err := reserveStock(ctx, tx, productID, qty); err != nil {
			return err
		}

		var existing *domain.CartItem
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				existing = &cart.Items[i]
				break
			}
		}
		if existing != nil {
			if err := tx.Carts().UpdateItemQuantity(ctx, existing.ID, existing.Quantity+qty); err != nil {
				return fmt.Errorf("update cart item: %w", err)
			}
		} else {
			now := time.Now()
			item := &domain.CartItem{
				ID:        uuid.NewString(),
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  qty,
				Price:     product.Price,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Carts().CreateItem(ctx, item); err != nil {
				return fmt.Errorf("create cart item: %w", err)
			}
		}

		out, err = recalculateCart(ctx, tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateProduct(ctx, productID)
	return out, nil
}

// UpdateItemQuantity sets a line to newQty, reserving or releasing the
// difference. A non-positive newQty removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, itemID string, newQty int) (*domain.Cart, error) {
	if newQty <= 0 {
		return s.RemoveItem(ctx, itemID)
	}

	var out *domain.Cart
	var productID string
	err := s.store.Atomic(ctx, func(tx port.Store) error {
		item, err := tx.Carts().FindItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("find cart item: %w", err)
		}
		if item == nil {
			return domain.ErrItemNotFound
		}
		productID = item.ProductID

		delta := newQty - item.Quantity
		if delta > 0 {
			if _, err := reserveStock(ctx, tx, item.ProductID, delta); err != nil {
				return err
			}
		} else if delta < 0 {
			if _, err := releaseStock(ctx, tx, item.ProductID, -delta); err != nil {
				return err
			}
		}
		if err := tx.Carts().UpdateItemQuantity(ctx, itemID, newQty); err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}

		out, err = recalculateCart(ctx, tx, item.CartID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateProduct(ctx, productID)
	return out, nil
}

// RemoveItem deletes a line and returns its full quantity to stock.
func (s *CartService) RemoveItem(ctx context.Context, itemID string) (*domain.Cart, error) {
	var out *domain.Cart
	var productID string
	err := s.store.Atomic(ctx, func(tx port.Store) error {
		item, err := tx.Carts().FindItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("find cart item: %w", err)
		}
		if item == nil {
			return domain.ErrItemNotFound
		}
		productID = item.ProductID

		if _, err := releaseStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
		if err := tx.Carts().DeleteItem(ctx, itemID); err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}

		out, err = recalculateCart(ctx, tx, item.CartID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateProduct(ctx, productID)
	return out, nil
}

// Clear releases every reserved unit in the shopper's active cart and
// empties it. A missing or already-empty cart is a no-op, not an error.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	var products []string
	err := s.store.Atomic(ctx, func(tx port.Store) error {
		cart, err := tx.Carts().FindActiveByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("find active cart: %w", err)
		}
		if cart == nil || len(cart.Items) == 0 {
			return nil
		}
		for _, item := range cart.Items {
			if _, err := releaseStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			products = append(products, item.ProductID)
		}
		if err := tx.Carts().DeleteItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("delete cart items: %w", err)
		}
		if err := tx.Carts().UpdateTotal(ctx, cart.ID, decimal.Zero); err != nil {
			return fmt.Errorf("reset cart total: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, id := range products {
		s.invalidateProduct(ctx, id)
	}
	return nil
}

// Checkout converts the active cart into an immutable order. Reserved
// stock is NOT released: the reservation now belongs to the order. The
// cart transitions to COMPLETED and is never reused; the shopper's next
// access opens a fresh one.
func (s *CartService) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	active, err := s.store.Carts().FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find active cart: %w", err)
	}
	if active == nil || len(active.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	// Guard against double-submit of the same cart. Degrades open when
	// the cache is unreachable; the status transition below is the
	// source of truth.
	guardKey := "checkout:" + active.ID
	if s.cache != nil {
		ok, err := s.cache.AcquireIdempotency(ctx, guardKey, checkoutGuardTTL)
		if err == nil && !ok {
			return nil, domain.ErrCheckoutInFlight
		}
	}

	var order *domain.Order
	err = s.store.Atomic(ctx, func(tx port.Store) error {
		cart, err := tx.Carts().FindActiveByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("find active cart: %w", err)
		}
		if cart == nil || len(cart.Items) == 0 {
			return domain.ErrEmptyCart
		}

		now := time.Now()
		order = &domain.Order{
			ID:        uuid.NewString(),
			UserID:    userID,
			Status:    domain.OrderStatusCompleted,
			Total:     domain.RecalculateTotal(cart.Items),
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, item := range cart.Items {
			name := ""
			if item.Product != nil {
				name = item.Product.Name
			}
			order.Items = append(order.Items, domain.OrderItem{
				ID:          uuid.NewString(),
				OrderID:     order.ID,
				ProductID:   item.ProductID,
				ProductName: name,
				Quantity:    item.Quantity,
				Price:       item.Price,
			})
		}

		if err := tx.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := tx.Carts().UpdateStatus(ctx, cart.ID, domain.CartStatusCompleted); err != nil {
			return fmt.Errorf("complete cart: %w", err)
		}
		return tx.Carts().DeleteItems(ctx, cart.ID)
	})
	if err != nil {
		if s.cache != nil {
			_ = s.cache.ReleaseIdempotency(ctx, guardKey)
		}
		return nil, err
	}

	if s.events != nil {
		if err := s.events.OrderPlaced(ctx, order); err != nil {
			slog.Error("publish order placed", slog.String("order_id", order.ID), slog.String("error", err.Error()))
		}
	}
	return order, nil
}

// recalculateCart reloads the cart with its items, recomputes the total
// from the stored price snapshots and persists it.
func recalculateCart(ctx context.Context, tx port.Store, cartID string) (*domain.Cart, error) {
	cart, err := tx.Carts().FindByID(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("reload cart: %w", err)
	}
	if cart == nil {
		return nil, domain.ErrCartNotFound
	}
	cart.Total = domain.RecalculateTotal(cart.Items)
	if err := tx.Carts().UpdateTotal(ctx, cartID, cart.Total); err != nil {
		return nil, fmt.Errorf("update cart total: %w", err)
	}
	return cart, nil
}

func (s *CartService) invalidateProduct(ctx context.Context, productID string) {
	if s.cache != nil && productID != "" {
		_ = s.cache.InvalidateProduct(ctx, productID)
	}
}
