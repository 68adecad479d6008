package domain

import "time"

// Category catalog category (per-store table store_<id>_categories)
// IDs are store-local: Category(id=1) in two stores are unrelated rows.
type Category struct {
	ID        int64     `db:"id"`   // BIGSERIAL, PRIMARY KEY
	Name      string    `db:"name"` // VARCHAR(200), NOT NULL
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
