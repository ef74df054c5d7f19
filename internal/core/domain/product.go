package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryComputers   Category = "computers"
	CategoryPeripherals Category = "peripherals"
	CategoryAudio       Category = "audio"
	CategoryAccessories Category = "accessories"
)

// ParseCategory converts untyped input into a Category. All category
// validation funnels through here.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryElectronics:
		return CategoryElectronics, nil
	case CategoryComputers:
		return CategoryComputers, nil
	case CategoryPeripherals:
		return CategoryPeripherals, nil
	case CategoryAudio:
		return CategoryAudio, nil
	case CategoryAccessories:
		return CategoryAccessories, nil
	}
	return "", ErrInvalidCategory
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    Category        `json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
