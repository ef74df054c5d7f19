package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rocketshop/shopcart/internal/core/domain"
)

type cartRepo struct {
	q querier
}

func (r *cartRepo) Create(ctx context.Context, c *domain.Cart) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, status, total, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Status, c.Total, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

// FindActiveByUser locks the cart row when called inside a transaction
// so concurrent mutations of the same cart serialize.
func (r *cartRepo) FindActiveByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, status, total, created_at, updated_at
		FROM carts
		WHERE user_id = ? AND status = ?
		FOR UPDATE`, userID, domain.CartStatusActive)
	return r.scanCartWithItems(ctx, row)
}

func (r *cartRepo) FindByID(ctx context.Context, cartID string) (*domain.Cart, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, status, total, created_at, updated_at
		FROM carts
		WHERE id = ?`, cartID)
	return r.scanCartWithItems(ctx, row)
}

func (r *cartRepo) UpdateStatus(ctx context.Context, cartID string, status domain.CartStatus) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE carts SET status = ?, updated_at = NOW() WHERE id = ?`, status, cartID)
	if err != nil {
		return fmt.Errorf("update cart status: %w", err)
	}
	return nil
}

func (r *cartRepo) UpdateTotal(ctx context.Context, cartID string, total decimal.Decimal) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE carts SET total = ?, updated_at = NOW() WHERE id = ?`, total, cartID)
	if err != nil {
		return fmt.Errorf("update cart total: %w", err)
	}
	return nil
}

func (r *cartRepo) FindItem(ctx context.Context, itemID string) (*domain.CartItem, error) {
	var item domain.CartItem
	err := r.q.QueryRowContext(ctx, `
		SELECT id, cart_id, product_id, quantity, price, created_at, updated_at
		FROM cart_items
		WHERE id = ?
		FOR UPDATE`, itemID,
	).Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.Price, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan cart item: %w", err)
	}
	return &item, nil
}

func (r *cartRepo) CreateItem(ctx context.Context, item *domain.CartItem) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.CartID, item.ProductID, item.Quantity, item.Price, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

func (r *cartRepo) UpdateItemQuantity(ctx context.Context, itemID string, qty int) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ?, updated_at = NOW() WHERE id = ?`, qty, itemID)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

func (r *cartRepo) DeleteItem(ctx context.Context, itemID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (r *cartRepo) DeleteItems(ctx context.Context, cartID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	if err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}
	return nil
}

func (r *cartRepo) scanCartWithItems(ctx context.Context, row *sql.Row) (*domain.Cart, error) {
	var c domain.Cart
	err := row.Scan(&c.ID, &c.UserID, &c.Status, &c.Total, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan cart: %w", err)
	}

	items, err := r.loadItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return &c, nil
}

func (r *cartRepo) loadItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.price, ci.created_at, ci.updated_at,
		       p.id, p.name, p.description, p.price, p.stock, p.category, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY ci.created_at`, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		var p domain.Product
		if err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.Price, &item.CreatedAt, &item.UpdatedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		item.Product = &p
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}
