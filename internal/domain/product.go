package domain

import (
	"database/sql"
	"math"
	"time"
)

// Product catalog product (per-store table store_<id>_products)
type Product struct {
	ID                 int64           `db:"id"`          // BIGSERIAL, PRIMARY KEY
	CategoryID         int64           `db:"category_id"` // FK -> categories.id, ON DELETE CASCADE
	Name               string          `db:"name"`        // VARCHAR(200), NOT NULL
	MarkedPrice        sql.NullFloat64 `db:"marked_price"`         // NUMERIC(12,2), nullable
	MinDiscountedPrice sql.NullFloat64 `db:"min_discounted_price"` // NUMERIC(12,2), nullable
	Description        sql.NullString  `db:"description"`          // TEXT, nullable
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

// DiscountPercent derives the discount percentage when both prices are
// present and the marked price is positive. Returns (0, false) otherwise.
func (p *Product) DiscountPercent() (int, bool) {
	if !p.MarkedPrice.Valid || !p.MinDiscountedPrice.Valid || p.MarkedPrice.Float64 <= 0 {
		return 0, false
	}
	pct := (p.MarkedPrice.Float64 - p.MinDiscountedPrice.Float64) / p.MarkedPrice.Float64 * 100
	return int(math.Round(pct)), true
}
