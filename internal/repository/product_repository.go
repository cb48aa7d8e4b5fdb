package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-api/internal/domain"

	"github.com/jmoiron/sqlx"
)

var (
	ErrProductNotFound = errors.New("product not found")

	// ErrConcurrentUpdate means the row changed or vanished after it was read
	ErrConcurrentUpdate = errors.New("product was modified concurrently")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	List(ctx context.Context) ([]*domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id, version int64) error
}

type productRepository struct {
	q sqlx.ExtContext
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(q sqlx.ExtContext) ProductRepository {
	return &productRepository{q: q}
}

const productColumns = `id, title, quantity, price, version, created_at, updated_at`

// List returns every product ordered by id
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	products := []*domain.Product{}
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id ASC`

	if err := sqlx.SelectContext(ctx, r.q, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product := &domain.Product{}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	if err := sqlx.GetContext(ctx, r.q, product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// Exists reports whether a product with id is present
func (r *productRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

	if err := sqlx.GetContext(ctx, r.q, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}

	return exists, nil
}

// Create inserts product and fills in its generated id, version and timestamps
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (title, quantity, price)
		VALUES ($1, $2, $3)
		RETURNING id, version, created_at, updated_at
	`

	row := r.q.QueryRowxContext(ctx, query, product.Title, product.Quantity, product.Price)
	if err := row.Scan(&product.ID, &product.Version, &product.CreatedAt, &product.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update writes product's fields if its stored version still equals
// product.Version, then advances the version. It returns ErrConcurrentUpdate
// when no row matched.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET title = $3, quantity = $4, price = $5, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`

	row := r.q.QueryRowxContext(ctx, query,
		product.ID,
		product.Version,
		product.Title,
		product.Quantity,
		product.Price,
	)
	if err := row.Scan(&product.Version, &product.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrConcurrentUpdate
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes the product if its stored version equals version
func (r *productRepository) Delete(ctx context.Context, id, version int64) error {
	query := `DELETE FROM products WHERE id = $1 AND version = $2`

	result, err := r.q.ExecContext(ctx, query, id, version)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	return nil
}
