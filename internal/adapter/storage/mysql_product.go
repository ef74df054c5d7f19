package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketshop/shopcart/internal/core/domain"
)

type productRepo struct {
	q querier
}

const productColumns = `id, name, description, price, stock, category, created_at, updated_at`

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, stock, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

func (r *productRepo) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE LOWER(name) = LOWER(?)`, name)
	return scanProduct(row)
}

func (r *productRepo) FindAll(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return collectProducts(rows)
}

func (r *productRepo) FindAvailableByCategory(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE category = ? AND stock > 0
		ORDER BY name`, category)
	if err != nil {
		return nil, fmt.Errorf("query products by category: %w", err)
	}
	return collectProducts(rows)
}

func (r *productRepo) Update(ctx context.Context, p *domain.Product) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, price = ?, stock = ?, category = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Price, p.Stock, p.Category, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// ReserveStock is a conditional single-statement decrement: concurrent
// reservations on the same product serialize on the row lock and the
// stock floor at zero is enforced by the WHERE clause, never by a
// read-modify-write pair.
func (r *productRepo) ReserveStock(ctx context.Context, productID string, qty int) (int, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock >= ?`,
		qty, productID, qty,
	)
	if err != nil {
		return 0, fmt.Errorf("reserve stock: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		var name string
		var available int
		err := r.q.QueryRowContext(ctx,
			`SELECT name, stock FROM products WHERE id = ?`, productID,
		).Scan(&name, &available)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("query stock: %w", err)
		}
		return 0, &domain.InsufficientStockError{
			ProductID: productID,
			Name:      name,
			Available: available,
			Requested: qty,
		}
	}

	var remaining int
	if err := r.q.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = ?`, productID,
	).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}
	return remaining, nil
}

func (r *productRepo) ReleaseStock(ctx context.Context, productID string, qty int) (int, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + ?, updated_at = NOW()
		WHERE id = ?`,
		qty, productID,
	)
	if err != nil {
		return 0, fmt.Errorf("release stock: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return 0, domain.ErrProductNotFound
	}

	var remaining int
	if err := r.q.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = ?`, productID,
	).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}
	return remaining, nil
}

func scanProduct(row *sql.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]domain.Product, error) {
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
