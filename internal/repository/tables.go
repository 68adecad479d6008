package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Table names are derived only from the numeric store id, never from
// other external input, so interpolating them into DDL/DML is safe.

func categoriesTable(storeID int64) string {
	return fmt.Sprintf("store_%d_categories", storeID)
}

func productsTable(storeID int64) string {
	return fmt.Sprintf("store_%d_products", storeID)
}

func imagesTable(storeID int64) string {
	return fmt.Sprintf("store_%d_images", storeID)
}

// Provision creates the three catalog tables and supporting indexes for
// one store. Idempotent: every statement is IF NOT EXISTS, so invoking
// it on an already-provisioned store is a no-op.
//
// Provisioning is triggered at store creation and lazily by any record
// manager that discovers the tables are absent (undefined_table).
func Provision(ctx context.Context, db *sql.DB, storeID int64) error {
	categories := categoriesTable(storeID)
	products := productsTable(storeID)
	images := imagesTable(storeID)

	stmts := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(200) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`, categories),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				category_id BIGINT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				name VARCHAR(200) NOT NULL,
				marked_price NUMERIC(12,2),
				min_discounted_price NUMERIC(12,2),
				description TEXT,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`, products, categories),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				product_id BIGINT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				name VARCHAR(200) NOT NULL,
				image_code VARCHAR(200) NOT NULL,
				image_file VARCHAR(255),
				url VARCHAR(500),
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`, images, products),
		// image_code is unique per store, not globally
		fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_code_unique ON %s(image_code)", images, images),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_name ON %s(name)", categories, categories),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_category ON %s(category_id)", products, products),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_name ON %s(name)", products, products),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_product ON %s(product_id)", images, images),
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: store %d: %v", ErrProvisionFailed, storeID, err)
		}
	}
	return nil
}

// Deprovision drops the store's tables child-before-parent so foreign
// key constraints are respected.
func Deprovision(ctx context.Context, db *sql.DB, storeID int64) error {
	tables := []string{
		imagesTable(storeID),
		productsTable(storeID),
		categoriesTable(storeID),
	}
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}
