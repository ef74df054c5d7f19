package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidPrice       = errors.New("price must be greater than zero")
	ErrInvalidCategory    = errors.New("invalid product category")
	ErrProductNotFound    = errors.New("product not found")
	ErrItemNotFound       = errors.New("cart item not found")
	ErrCartNotFound       = errors.New("cart not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrNoOrders           = errors.New("no orders found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrDuplicateName      = errors.New("a product with this name already exists")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCheckoutInFlight   = errors.New("checkout already in progress")
)

// InsufficientStockError reports a reservation that exceeds available
// stock. It carries enough detail for the caller to tell the shopper
// what is actually available.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: available %d, requested %d",
		e.Name, e.Available, e.Requested)
}
