package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rocketshop/shopcart/internal/core/domain"
	"github.com/rocketshop/shopcart/internal/port"
)

const productCacheTTL = 5 * time.Minute

type CatalogService struct {
	store port.Store
	cache port.Cache
}

func NewCatalogService(store port.Store, cache port.Cache) *CatalogService {
	return &CatalogService{store: store, cache: cache}
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
}

// UpdateProductInput carries only the fields to change; nil means keep.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Category    *string
}

func (s *CatalogService) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	category, err := domain.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, domain.ErrInvalidPrice
	}
	if in.Stock < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	name := strings.TrimSpace(in.Name)
	existing, err := s.store.Products().FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("duplicate name check: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateName
	}

	now := time.Now()
	p := &domain.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Products().Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *CatalogService) FindAll(ctx context.Context) ([]domain.Product, error) {
	return s.store.Products().FindAll(ctx)
}

func (s *CatalogService) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache != nil {
		if p, err := s.cache.GetProduct(ctx, id); err == nil && p != nil {
			return p, nil
		}
	}
	p, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	if s.cache != nil {
		_ = s.cache.SetProduct(ctx, p, productCacheTTL)
	}
	return p, nil
}

func (s *CatalogService) FindAvailableByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	c, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	return s.store.Products().FindAvailableByCategory(ctx, c)
}

func (s *CatalogService) Update(ctx context.Context, id string, in UpdateProductInput) (*domain.Product, error) {
	p, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if !strings.EqualFold(name, p.Name) {
			existing, err := s.store.Products().FindByName(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("duplicate name check: %w", err)
			}
			if existing != nil && existing.ID != p.ID {
				return nil, domain.ErrDuplicateName
			}
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return nil, domain.ErrInvalidPrice
		}
		p.Price = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, domain.ErrInvalidQuantity
		}
		p.Stock = *in.Stock
	}
	if in.Category != nil {
		category, err := domain.ParseCategory(*in.Category)
		if err != nil {
			return nil, err
		}
		p.Category = category
	}

	p.UpdatedAt = time.Now()
	if err := s.store.Products().Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateProduct(ctx, id)
	}
	return p, nil
}

// Delete removes a product from the catalog. Historical order lines keep
// their denormalized name and price, so they stay readable afterward.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	p, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find product: %w", err)
	}
	if p == nil {
		return domain.ErrProductNotFound
	}
	if err := s.store.Products().Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateProduct(ctx, id)
	}
	return nil
}
