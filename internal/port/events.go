package port

import (
	"context"

	"github.com/rocketshop/shopcart/internal/core/domain"
)

// EventPublisher announces committed orders to downstream consumers.
// Publishing is best effort and happens after the database commit.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, o *domain.Order) error
	Close()
}
