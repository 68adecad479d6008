package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-host/internal/domain"

	"go.uber.org/zap"
)

var productColumns = map[string]bool{
	"id":                   true,
	"category_id":          true,
	"name":                 true,
	"marked_price":         true,
	"min_discounted_price": true,
	"description":          true,
	"created_at":           true,
	"updated_at":           true,
}

const productSelectColumns = "id, category_id, name, marked_price, min_discounted_price, description, created_at, updated_at"

// ProductsRepo record manager for one store's products table
type ProductsRepo struct {
	storeTables
	table string
}

// NewProductsRepo creates a products record manager scoped to one store
func NewProductsRepo(db *sql.DB, storeID int64, logger *zap.Logger) *ProductsRepo {
	return &ProductsRepo{
		storeTables: storeTables{db: db, storeID: storeID, logger: logger},
		table:       productsTable(storeID),
	}
}

func scanProduct(rows *sql.Rows) (*domain.Product, error) {
	var p domain.Product
	if err := rows.Scan(
		&p.ID,
		&p.CategoryID,
		&p.Name,
		&p.MarkedPrice,
		&p.MinDiscountedPrice,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductsRepo) collect(rows *sql.Rows) ([]*domain.Product, error) {
	defer rows.Close()
	products := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListAll returns all products for the store ordered by name
func (r *ProductsRepo) ListAll(ctx context.Context) ([]*domain.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY name", productSelectColumns, r.table)
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return r.collect(rows)
}

// Get returns exactly one product matching the equality predicates
func (r *ProductsRepo) Get(ctx context.Context, criteria ...Criterion) (*domain.Product, error) {
	where, params, err := buildWhere(Filter{Criteria: criteria}, productColumns)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 2", productSelectColumns, r.table, where)
	rows, err := r.query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	matches, err := r.collect(rows)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("product: %w", ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("product: %w", ErrMultipleRows)
	}
}

// Filter returns all products matching the criteria, ordered by name
func (r *ProductsRepo) Filter(ctx context.Context, f Filter) ([]*domain.Product, error) {
	where, params, err := buildWhere(f, productColumns)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY name", productSelectColumns, r.table, where)
	rows, err := r.query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter products: %w", err)
	}
	return r.collect(rows)
}

// Create inserts a product. The category must exist in the same store;
// the caller validates the reference, the FK constraint backstops it.
func (r *ProductsRepo) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(
		`INSERT INTO %s (category_id, name, marked_price, min_discounted_price, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`, r.table)

	var id int64
	args := []any{p.CategoryID, p.Name, p.MarkedPrice, p.MinDiscountedPrice, p.Description, now, now}
	if err := r.queryRowScan(ctx, query, args, &id); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	created := *p
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// Update persists the product's current field values, refreshing updated_at
func (r *ProductsRepo) Update(ctx context.Context, p *domain.Product) error {
	if p.ID == 0 {
		return domain.NewValidationError("id", "product has no id")
	}
	now := time.Now().UTC()
	query := fmt.Sprintf(
		`UPDATE %s SET category_id = $1, name = $2, marked_price = $3, min_discounted_price = $4,
		 description = $5, updated_at = $6 WHERE id = $7`, r.table)
	if _, err := r.exec(ctx, query,
		p.CategoryID, p.Name, p.MarkedPrice, p.MinDiscountedPrice, p.Description, now, p.ID); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	p.UpdatedAt = now
	return nil
}

// Delete removes the product by id; its images cascade at the database layer
func (r *ProductsRepo) Delete(ctx context.Context, p *domain.Product) error {
	if p.ID == 0 {
		return domain.NewValidationError("id", "product has no id")
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table)
	if _, err := r.exec(ctx, query, p.ID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// Exists reports whether any product matches the criteria
func (r *ProductsRepo) Exists(ctx context.Context, criteria ...Criterion) (bool, error) {
	where, params, err := buildWhere(Filter{Criteria: criteria}, productColumns)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s)", r.table, where)
	var exists bool
	if err := r.queryRowScan(ctx, query, params, &exists); err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return exists, nil
}
