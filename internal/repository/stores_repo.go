package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catalog-host/internal/domain"

	"go.uber.org/zap"
)

// StoresRepo global store (tenant) registry backed by the shared stores
// table. Store rows supply the numeric ids that namespace every
// per-store catalog table.
type StoresRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStoresRepo creates the store registry
func NewStoresRepo(db *sql.DB, logger *zap.Logger) *StoresRepo {
	return &StoresRepo{db: db, logger: logger}
}

// EnsureTable creates the global stores table. Idempotent; called once
// at startup.
func (r *StoresRepo) EnsureTable(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stores (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(200) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		"CREATE INDEX IF NOT EXISTS idx_stores_name ON stores(name)",
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure stores table: %w", err)
		}
	}
	return nil
}

// GetStore returns the store by id
func (r *StoresRepo) GetStore(ctx context.Context, storeID int64) (*domain.Store, error) {
	query := "SELECT id, name, created_at, updated_at FROM stores WHERE id = $1"
	var s domain.Store
	err := r.db.QueryRowContext(ctx, query, storeID).Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store %d: %w", storeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &s, nil
}

// GetStoreByName returns the store by case-insensitive name match
func (r *StoresRepo) GetStoreByName(ctx context.Context, name string) (*domain.Store, error) {
	query := "SELECT id, name, created_at, updated_at FROM stores WHERE name ILIKE $1 ORDER BY id LIMIT 1"
	var s domain.Store
	err := r.db.QueryRowContext(ctx, query, name).Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store by name: %w", err)
	}
	return &s, nil
}

// ListStores returns all stores, newest first
func (r *StoresRepo) ListStores(ctx context.Context) ([]*domain.Store, error) {
	query := "SELECT id, name, created_at, updated_at FROM stores ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	stores := []*domain.Store{}
	for rows.Next() {
		var s domain.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, &s)
	}
	return stores, rows.Err()
}

// CreateStore inserts the store row, then provisions its catalog
// tables. The row insert and provisioning are not one transaction: if
// provisioning fails the store row is kept and the error is returned as
// a retryable ErrProvisionFailed; the tables self-heal on next access.
func (r *StoresRepo) CreateStore(ctx context.Context, name string) (*domain.Store, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "store name is required")
	}
	now := time.Now().UTC()
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO stores (name, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id",
		name, now, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	store := &domain.Store{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}

	if err := Provision(ctx, r.db, id); err != nil {
		r.logger.Error("store created but provisioning failed; will retry lazily",
			zap.Int64("store_id", id), zap.Error(err))
		return store, err
	}
	return store, nil
}

// DeleteStore drops the store's catalog tables, then removes the
// registry row.
func (r *StoresRepo) DeleteStore(ctx context.Context, storeID int64) error {
	if err := Deprovision(ctx, r.db, storeID); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM stores WHERE id = $1", storeID); err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	return nil
}
