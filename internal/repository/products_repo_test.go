package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"catalog-host/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "category_id", "name", "marked_price", "min_discounted_price",
		"description", "created_at", "updated_at",
	})
}

func TestProductsFilter_NameContains(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductsRepo(db, testStoreID, zap.NewNop())

	now := time.Now().UTC()
	rows := productRows().
		AddRow(1, 10, "Football", 2000.0, 1500.0, "match ball", now, now).
		AddRow(2, 10, "Football Boots", nil, nil, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM store_7_products WHERE name ILIKE $1 ORDER BY name")).
		WithArgs("%ball%").
		WillReturnRows(rows)

	f := Filter{Criteria: []Criterion{Contains("name", "ball")}}
	products, err := repo.Filter(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Football", products[0].Name)
	assert.True(t, products[0].MarkedPrice.Valid)
	assert.Equal(t, 2000.0, products[0].MarkedPrice.Float64)

	assert.False(t, products[1].MarkedPrice.Valid)
	assert.False(t, products[1].Description.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductsGet_ByID(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductsRepo(db, testStoreID, zap.NewNop())

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM store_7_products WHERE id = $1 LIMIT 2")).
		WithArgs(int64(1)).
		WillReturnRows(productRows().AddRow(1, 10, "Football", 2000.0, 1500.0, nil, now, now))

	p, err := repo.Get(context.Background(), Eq("id", int64(1)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, int64(10), p.CategoryID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductsCreate_ReturnsGeneratedID(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductsRepo(db, testStoreID, zap.NewNop())

	mock.ExpectQuery("INSERT INTO store_7_products").
		WithArgs(int64(10), "Football", sql.NullFloat64{Float64: 2000, Valid: true},
			sql.NullFloat64{Float64: 1500, Valid: true}, sql.NullString{},
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	p, err := repo.Create(context.Background(), &domain.Product{
		CategoryID:         10,
		Name:               "Football",
		MarkedPrice:        sql.NullFloat64{Float64: 2000, Valid: true},
		MinDiscountedPrice: sql.NullFloat64{Float64: 1500, Valid: true},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductsUpdate_RefreshesUpdatedAt(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductsRepo(db, testStoreID, zap.NewNop())

	mock.ExpectExec("UPDATE store_7_products SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &domain.Product{ID: 5, CategoryID: 10, Name: "Football"}
	before := p.UpdatedAt
	err := repo.Update(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, p.UpdatedAt.After(before))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductsUpdate_RequiresID(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	repo := NewProductsRepo(db, testStoreID, zap.NewNop())

	err := repo.Update(context.Background(), &domain.Product{Name: "Football"})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestProductsDelete(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductsRepo(db, testStoreID, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM store_7_products WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), &domain.Product{ID: 5})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
