package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive    CartStatus = "ACTIVE"
	CartStatusCompleted CartStatus = "COMPLETED"
)

type Cart struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Status    CartStatus      `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Items     []CartItem      `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartItem carries the unit price snapshotted when the line was first
// created; it is never re-read from the catalog.
type CartItem struct {
	ID        string          `json:"id"`
	CartID    string          `json:"cart_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   *Product        `json:"product,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Subtotal is quantity times the snapshot price.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RecalculateTotal returns the sum of the subtotals of the given items.
func RecalculateTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
