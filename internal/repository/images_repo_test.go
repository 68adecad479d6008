package repository

import (
	"context"
	"database/sql"
	"errors"
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

type fakeRemover struct {
	removed []string
	err     error
}

func (f *fakeRemover) Remove(path string) error {
	f.removed = append(f.removed, path)
	return f.err
}

func imageRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "product_id", "name", "image_code", "image_file", "url",
		"created_at", "updated_at",
	})
}

func TestImagesGet_ByCode(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewImagesRepo(db, testStoreID, nil, zap.NewNop())

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM store_7_images WHERE image_code = $1 LIMIT 2")).
		WithArgs("football").
		WillReturnRows(imageRows().AddRow(1, 3, "Football", "football", "7/football.jpg", nil, now, now))

	img, err := repo.Get(context.Background(), Eq("image_code", "football"))
	require.NoError(t, err)
	assert.Equal(t, "football", img.ImageCode)
	assert.True(t, img.ImageFile.Valid)
	assert.False(t, img.URL.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImagesExists_ExcludesOwnRow(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewImagesRepo(db, testStoreID, nil, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE image_code = $1 AND id != $2")).
		WithArgs("football", int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	f := Filter{
		Criteria: []Criterion{Eq("image_code", "football")},
		Exclude:  []Criterion{Eq("id", int64(9))},
	}
	ok, err := repo.Exists(context.Background(), f)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImagesCreate_UniqueViolationSurfaces(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewImagesRepo(db, testStoreID, nil, zap.NewNop())

	mock.ExpectQuery("INSERT INTO store_7_images").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), &domain.Image{ProductID: 3, Name: "Football", ImageCode: "football"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImagesDelete_RemovesStoredFile(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	files := &fakeRemover{}
	repo := NewImagesRepo(db, testStoreID, files, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM store_7_images WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	img := &domain.Image{ID: 4, ImageFile: sql.NullString{String: "7/football.jpg", Valid: true}}
	err := repo.Delete(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, []string{"7/football.jpg"}, files.removed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImagesDelete_FileRemovalFailureIsSwallowed(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	files := &fakeRemover{err: errors.New("disk gone")}
	repo := NewImagesRepo(db, testStoreID, files, zap.NewNop())

	mock.ExpectExec("DELETE FROM store_7_images").
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	img := &domain.Image{ID: 4, ImageFile: sql.NullString{String: "7/football.jpg", Valid: true}}
	err := repo.Delete(context.Background(), img)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImagesFilter_ByProduct(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewImagesRepo(db, testStoreID, nil, zap.NewNop())

	now := time.Now().UTC()
	rows := imageRows().
		AddRow(2, 3, "Side view", "football_1", nil, "https://cdn.example.com/football.jpg", now, now).
		AddRow(1, 3, "Front view", "football", "7/football.jpg", nil, now.Add(-time.Hour), now)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = $1 ORDER BY created_at DESC")).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	f := Filter{Criteria: []Criterion{Eq("product_id", int64(3))}}
	images, err := repo.Filter(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "football_1", images[0].ImageCode)
	assert.True(t, images[0].URL.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}
