package domain

import (
	"database/sql"
	"time"
)

// Image catalog image record (per-store table store_<id>_images)
// ImageCode is unique within the store's table, not globally: the same
// code may exist in two different stores.
// Exactly one of ImageFile (storage path) or URL (remote reference) is
// the authoritative source for the image bytes.
type Image struct {
	ID        int64          `db:"id"`         // BIGSERIAL, PRIMARY KEY
	ProductID int64          `db:"product_id"` // FK -> products.id, ON DELETE CASCADE
	Name      string         `db:"name"`       // VARCHAR(200), NOT NULL
	ImageCode string         `db:"image_code"` // VARCHAR(200), unique per store
	ImageFile sql.NullString `db:"image_file"` // VARCHAR(255), nullable storage path
	URL       sql.NullString `db:"url"`        // VARCHAR(500), nullable remote reference
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}
