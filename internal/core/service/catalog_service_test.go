package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketshop/shopcart/internal/core/domain"
)

func TestCatalogCreate(t *testing.T) {
	store := newMemStore()
	svc := NewCatalogService(store, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProductInput{
		Name:        "Mechanical Keyboard",
		Description: "Tenkeyless, brown switches",
		Price:       decimal.RequireFromString("89.99"),
		Stock:       12,
		Category:    "peripherals",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, domain.CategoryPeripherals, p.Category)
	assert.Equal(t, 12, p.Stock)

	stored, err := store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Price.Equal(decimal.RequireFromString("89.99")))
}

func TestCatalogCreate_Validation(t *testing.T) {
	store := newMemStore()
	svc := NewCatalogService(store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{
		Name:     "Bad Category",
		Price:    decimal.RequireFromString("10.00"),
		Stock:    1,
		Category: "furniture",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	_, err = svc.Create(ctx, CreateProductInput{
		Name:     "Free Item",
		Price:    decimal.Zero,
		Stock:    1,
		Category: "audio",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, CreateProductInput{
		Name:     "Negative Stock",
		Price:    decimal.RequireFromString("10.00"),
		Stock:    -1,
		Category: "audio",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestCatalogCreate_DuplicateNameCaseInsensitive(t *testing.T) {
	store := newMemStore()
	svc := NewCatalogService(store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{
		Name:     "USB Hub",
		Price:    decimal.RequireFromString("30.00"),
		Stock:    5,
		Category: "accessories",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateProductInput{
		Name:     "usb hub",
		Price:    decimal.RequireFromString("25.00"),
		Stock:    5,
		Category: "accessories",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestCatalogFindByID_CacheAside(t *testing.T) {
	store := newMemStore()
	cache := newMockCache()
	svc := NewCatalogService(store, cache)
	ctx := context.Background()
	p := seedProduct(t, store, "Microphone", "110.00", 4)

	got, err := svc.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCatalogFindAvailableByCategory(t *testing.T) {
	store := newMemStore()
	svc := NewCatalogService(store, nil)
	ctx := context.Background()

	inStock := seedProduct(t, store, "Earbuds", "45.00", 3)
	soldOut := seedProduct(t, store, "Soundbar", "200.00", 0)
	_ = soldOut

	products, err := svc.FindAvailableByCategory(ctx, "Electronics")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, inStock.ID, products[0].ID)

	_, err = svc.FindAvailableByCategory(ctx, "nonsense")
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestCatalogUpdate_PartialFields(t *testing.T) {
	store := newMemStore()
	cache := newMockCache()
	svc := NewCatalogService(store, cache)
	ctx := context.Background()
	p := seedProduct(t, store, "Router", "150.00", 6)

	newPrice := decimal.RequireFromString("135.00")
	updated, err := svc.Update(ctx, p.ID, UpdateProductInput{Price: &newPrice})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(newPrice))
	assert.Equal(t, "Router", updated.Name)
	assert.Equal(t, 6, updated.Stock)
	assert.Contains(t, cache.invalidated, p.ID)
}

func TestCatalogUpdate_RenameChecksDuplicates(t *testing.T) {
	store := newMemStore()
	svc := NewCatalogService(store, nil)
	ctx := context.Background()
	p := seedProduct(t, store, "Switch", "45.00", 6)
	seedProduct(t, store, "Access Point", "90.00", 2)

	// Renaming onto an existing name fails.
	taken := "access point"
	_, err := svc.Update(ctx, p.ID, UpdateProductInput{Name: &taken})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	// Re-casing its own name is not a rename.
	sameName := "SWITCH"
	updated, err := svc.Update(ctx, p.ID, UpdateProductInput{Name: &sameName})
	require.NoError(t, err)
	assert.Equal(t, "SWITCH", updated.Name)
}

func TestCatalogUpdate_NotFound(t *testing.T) {
	store := newMemStore()
	svc := NewCatalogService(store, nil)

	_, err := svc.Update(context.Background(), "missing", UpdateProductInput{})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCatalogDelete(t *testing.T) {
	store := newMemStore()
	cache := newMockCache()
	svc := NewCatalogService(store, cache)
	ctx := context.Background()
	p := seedProduct(t, store, "Printer", "220.00", 2)

	require.NoError(t, svc.Delete(ctx, p.ID))
	stored, err := store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Contains(t, cache.invalidated, p.ID)

	assert.ErrorIs(t, svc.Delete(ctx, p.ID), domain.ErrProductNotFound)
}

func TestCatalogDelete_KeepsOrderHistoryReadable(t *testing.T) {
	store := newMemStore()
	catalog := NewCatalogService(store, nil)
	carts := NewCartService(store, nil, nil)
	orders := NewOrderService(store, nil)
	ctx := context.Background()
	p := seedProduct(t, store, "Scanner", "95.00", 5)

	_, err := carts.AddItem(ctx, "user-1", p.ID, 2)
	require.NoError(t, err)
	placed, err := carts.Checkout(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, catalog.Delete(ctx, p.ID))

	got, err := orders.FindOne(ctx, placed.ID, "user-1", false)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Scanner", got.Items[0].ProductName)
	assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("95.00")))
}
