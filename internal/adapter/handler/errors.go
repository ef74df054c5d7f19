package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketshop/shopcart/internal/core/domain"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Every
// typed failure stays distinct on the wire; anything unrecognized is a
// 500 with the detail kept out of the response.
func respondError(c *gin.Context, err error) {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":      insufficient.Error(),
			"product_id": insufficient.ProductID,
			"available":  insufficient.Available,
			"requested":  insufficient.Requested,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrEmptyCart):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrCheckoutInFlight):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrNoOrders):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		slog.Error("internal error", slog.String("trace_id", traceID(c)), slog.String("error", err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
