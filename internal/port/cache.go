package port

import (
	"context"
	"time"

	"github.com/rocketshop/shopcart/internal/core/domain"
)

// Cache is the Redis-backed fast path. It is advisory: callers must
// behave correctly when every method reports a miss or an error.
type Cache interface {
	// AcquireIdempotency sets key if absent, returns false if it was
	// already held. Used to reject double-submitted checkouts.
	AcquireIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseIdempotency(ctx context.Context, key string) error

	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SetProduct(ctx context.Context, p *domain.Product, ttl time.Duration) error
	InvalidateProduct(ctx context.Context, id string) error
}
