package domain

import "time"

// Store tenant domain model (global stores table)
// Each store owns a physically separate set of catalog tables named
// store_<id>_categories / store_<id>_products / store_<id>_images.
type Store struct {
	ID        int64     `db:"id"`   // BIGSERIAL, PRIMARY KEY
	Name      string    `db:"name"` // VARCHAR(200), NOT NULL
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
