package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-host/internal/domain"

	"go.uber.org/zap"
)

// categoryColumns allow-list for criteria validation
var categoryColumns = map[string]bool{
	"id":         true,
	"name":       true,
	"created_at": true,
	"updated_at": true,
}

const categorySelectColumns = "id, name, created_at, updated_at"

// CategoriesRepo record manager for one store's categories table
type CategoriesRepo struct {
	storeTables
	table string
}

// NewCategoriesRepo creates a categories record manager scoped to one store
func NewCategoriesRepo(db *sql.DB, storeID int64, logger *zap.Logger) *CategoriesRepo {
	return &CategoriesRepo{
		storeTables: storeTables{db: db, storeID: storeID, logger: logger},
		table:       categoriesTable(storeID),
	}
}

func scanCategory(rows *sql.Rows) (*domain.Category, error) {
	var c domain.Category
	if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListAll returns all categories for the store ordered by name.
// Never fails for an empty table.
func (r *CategoriesRepo) ListAll(ctx context.Context) ([]*domain.Category, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY name", categorySelectColumns, r.table)
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Get returns exactly one category matching the equality predicates.
// Returns ErrNotFound on zero matches and ErrMultipleRows when the
// predicates are not selective enough.
func (r *CategoriesRepo) Get(ctx context.Context, criteria ...Criterion) (*domain.Category, error) {
	where, params, err := buildWhere(Filter{Criteria: criteria}, categoryColumns)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 2", categorySelectColumns, r.table, where)
	rows, err := r.query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	defer rows.Close()

	var matches []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		matches = append(matches, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("category: %w", ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("category: %w", ErrMultipleRows)
	}
}

// Filter returns all categories matching the criteria, ordered by name
func (r *CategoriesRepo) Filter(ctx context.Context, f Filter) ([]*domain.Category, error) {
	where, params, err := buildWhere(f, categoryColumns)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY name", categorySelectColumns, r.table, where)
	rows, err := r.query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Create inserts a category and returns it with the generated id and
// timestamps populated.
func (r *CategoriesRepo) Create(ctx context.Context, name string) (*domain.Category, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(
		"INSERT INTO %s (name, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id", r.table)

	var id int64
	if err := r.queryRowScan(ctx, query, []any{name, now, now}, &id); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &domain.Category{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// Update persists the category's current field values, refreshing
// updated_at. The category must carry a valid id.
func (r *CategoriesRepo) Update(ctx context.Context, c *domain.Category) error {
	if c.ID == 0 {
		return domain.NewValidationError("id", "category has no id")
	}
	now := time.Now().UTC()
	query := fmt.Sprintf("UPDATE %s SET name = $1, updated_at = $2 WHERE id = $3", r.table)
	if _, err := r.exec(ctx, query, c.Name, now, c.ID); err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	c.UpdatedAt = now
	return nil
}

// Delete removes the category by id. Products and their images cascade
// at the database layer.
func (r *CategoriesRepo) Delete(ctx context.Context, c *domain.Category) error {
	if c.ID == 0 {
		return domain.NewValidationError("id", "category has no id")
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table)
	if _, err := r.exec(ctx, query, c.ID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// Exists reports whether any category matches the criteria without
// materializing rows.
func (r *CategoriesRepo) Exists(ctx context.Context, criteria ...Criterion) (bool, error) {
	where, params, err := buildWhere(Filter{Criteria: criteria}, categoryColumns)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s)", r.table, where)
	var exists bool
	if err := r.queryRowScan(ctx, query, params, &exists); err != nil {
		return false, fmt.Errorf("failed to check category existence: %w", err)
	}
	return exists, nil
}
