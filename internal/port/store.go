package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rocketshop/shopcart/internal/core/domain"
)

// Store bundles the per-entity repositories behind a single persistence
// boundary. Atomic runs fn against a transaction-scoped Store: either
// every write inside fn is applied or none is. Implementations must make
// stock adjustments conditional single-statement updates so concurrent
// reservations on the same product serialize without lost updates.
type Store interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Users() UserRepository

	Atomic(ctx context.Context, fn func(Store) error) error
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
	// FindByName matches case-insensitively; returns nil when absent.
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	FindAvailableByCategory(ctx context.Context, category domain.Category) ([]domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error

	// ReserveStock decrements stock by qty only if qty units are
	// available, returning the remaining stock. Fails with
	// domain.ErrProductNotFound or *domain.InsufficientStockError.
	ReserveStock(ctx context.Context, productID string, qty int) (int, error)
	// ReleaseStock increments stock by qty, returning the new stock.
	ReleaseStock(ctx context.Context, productID string, qty int) (int, error)
}

type CartRepository interface {
	Create(ctx context.Context, c *domain.Cart) error
	// FindActiveByUser eagerly loads items and their products; returns
	// nil when the user has no ACTIVE cart.
	FindActiveByUser(ctx context.Context, userID string) (*domain.Cart, error)
	FindByID(ctx context.Context, cartID string) (*domain.Cart, error)
	UpdateStatus(ctx context.Context, cartID string, status domain.CartStatus) error
	UpdateTotal(ctx context.Context, cartID string, total decimal.Decimal) error

	FindItem(ctx context.Context, itemID string) (*domain.CartItem, error)
	CreateItem(ctx context.Context, item *domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID string, qty int) error
	DeleteItem(ctx context.Context, itemID string) error
	DeleteItems(ctx context.Context, cartID string) error
}

type OrderRepository interface {
	// Create persists the order and all of its items.
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, orderID string) (*domain.Order, error)
	// FindAll returns orders most recent first, items included.
	FindAll(ctx context.Context) ([]domain.Order, error)
	FindAllByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// Delete removes the order and its items.
	Delete(ctx context.Context, orderID string) error
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
