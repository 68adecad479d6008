package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"catalog-host/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testStoreID = int64(7)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func categoryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"})
}

func TestCategoriesListAll_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewCategoriesRepo(db, testStoreID, zap.NewNop())

	now := time.Now().UTC()
	rows := categoryRows().
		AddRow(1, "Footwear", now, now).
		AddRow(2, "Sportswear", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, created_at, updated_at FROM store_7_categories ORDER BY name")).
		WillReturnRows(rows)

	categories, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 2)
	assert.Equal(t, "Footwear", categories[0].Name)
	assert.Equal(t, int64(2), categories[1].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoriesListAll_EmptyTable(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewCategoriesRepo(db, testStoreID, zap.NewNop())

	mock.ExpectQuery("SELECT id, name, created_at, updated_at FROM store_7_categories").
		WillReturnRows(categoryRows())

	categories, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, categories)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoriesGet_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewCategoriesRepo(db, testStoreID, zap.NewNop())

	mock.ExpectQuery("SELECT id, name, created_at, updated_at FROM store_7_categories WHERE").
		WithArgs(int64(99)).
		WillReturnRows(categoryRows())

	_, err := repo.Get(context.Background(), Eq("id", int64(99)))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoriesGet_MultipleRows(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewCategoriesRepo(db, testStoreID, zap.NewNop())

	now := time.Now().UTC()
	rows := categoryRows().
		AddRow(1, "Shoes", now, now).
		AddRow(2, "Shoes", now, now)

	mock.ExpectQuery("SELECT id, name, created_at, updated_at FROM store_7_categories WHERE").
		WithArgs("Shoes").
		WillReturnRows(rows)

	_, err := repo.Get(context.Background(), Eq("name", "Shoes"))
	assert.ErrorIs(t, err, ErrMultipleRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoriesCreate_ReturnsGeneratedID(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewCategoriesRepo(db, testStoreID, zap.NewNop())

	mock.ExpectQuery("INSERT INTO store_7_categories").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	c, err := repo.Create(context.Background(), "Footwear")
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.ID)
	assert.Equal(t, "Footwear", c.Name)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoriesUpdate_RequiresID(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	repo := NewCategoriesRepo(db, testStoreID, zap.NewNop())

	err := repo.Update(context.Background(), &domain.Category{Name: "Shoes"})
	assert.Error(t, err)
}

func TestCategoriesExists(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewCategoriesRepo(db, testStoreID, zap.NewNop())

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), Eq("id", int64(3)))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// A query against a missing table provisions the store's tables and
// retries once.
func TestCategoriesListAll_SelfHealsOnMissingTable(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewCategoriesRepo(db, testStoreID, zap.NewNop())

	listSQL := "SELECT id, name, created_at, updated_at FROM store_7_categories ORDER BY name"

	mock.ExpectQuery(regexp.QuoteMeta(listSQL)).
		WillReturnError(&pq.Error{Code: "42P01"})

	// provisioning: three tables plus five indexes
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS store_7_categories").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS store_7_products").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS store_7_images").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX IF NOT EXISTS idx_store_7_images_code_unique").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_store_7_categories_name").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_store_7_products_category").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_store_7_products_name").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_store_7_images_product").WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(regexp.QuoteMeta(listSQL)).WillReturnRows(categoryRows())

	categories, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, categories)

	assert.NoError(t, mock.ExpectationsWereMet())
}
