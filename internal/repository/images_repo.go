package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-host/internal/domain"

	"go.uber.org/zap"
)

var imageColumns = map[string]bool{
	"id":         true,
	"product_id": true,
	"name":       true,
	"image_code": true,
	"image_file": true,
	"url":        true,
	"created_at": true,
	"updated_at": true,
}

const imageSelectColumns = "id, product_id, name, image_code, image_file, url, created_at, updated_at"

// FileRemover removes a stored image file. Removal on row delete is
// best-effort: failures are logged and swallowed, never propagated.
type FileRemover interface {
	Remove(path string) error
}

// ImagesRepo record manager for one store's images table
type ImagesRepo struct {
	storeTables
	table string
	files FileRemover // optional
}

// NewImagesRepo creates an images record manager scoped to one store.
// files may be nil when no file storage is attached.
func NewImagesRepo(db *sql.DB, storeID int64, files FileRemover, logger *zap.Logger) *ImagesRepo {
	return &ImagesRepo{
		storeTables: storeTables{db: db, storeID: storeID, logger: logger},
		table:       imagesTable(storeID),
		files:       files,
	}
}

func scanImage(rows *sql.Rows) (*domain.Image, error) {
	var img domain.Image
	if err := rows.Scan(
		&img.ID,
		&img.ProductID,
		&img.Name,
		&img.ImageCode,
		&img.ImageFile,
		&img.URL,
		&img.CreatedAt,
		&img.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *ImagesRepo) collect(rows *sql.Rows) ([]*domain.Image, error) {
	defer rows.Close()
	images := []*domain.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ListAll returns all images for the store, newest first
func (r *ImagesRepo) ListAll(ctx context.Context) ([]*domain.Image, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC", imageSelectColumns, r.table)
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return r.collect(rows)
}

// Get returns exactly one image matching the equality predicates
func (r *ImagesRepo) Get(ctx context.Context, criteria ...Criterion) (*domain.Image, error) {
	where, params, err := buildWhere(Filter{Criteria: criteria}, imageColumns)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 2", imageSelectColumns, r.table, where)
	rows, err := r.query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	matches, err := r.collect(rows)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("image: %w", ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("image: %w", ErrMultipleRows)
	}
}

// Filter returns all images matching the criteria, newest first
func (r *ImagesRepo) Filter(ctx context.Context, f Filter) ([]*domain.Image, error) {
	where, params, err := buildWhere(f, imageColumns)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY created_at DESC", imageSelectColumns, r.table, where)
	rows, err := r.query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter images: %w", err)
	}
	return r.collect(rows)
}

// Create inserts an image row. The image_code must already be resolved
// by the caller; a concurrent writer can still win the race, in which
// case the unique index rejects the insert and IsUniqueViolation on the
// returned error signals the caller to re-resolve and retry.
func (r *ImagesRepo) Create(ctx context.Context, img *domain.Image) (*domain.Image, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(
		`INSERT INTO %s (product_id, name, image_code, image_file, url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`, r.table)

	var id int64
	args := []any{img.ProductID, img.Name, img.ImageCode, img.ImageFile, img.URL, now, now}
	if err := r.queryRowScan(ctx, query, args, &id); err != nil {
		return nil, fmt.Errorf("failed to create image: %w", err)
	}
	created := *img
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// Update persists the image's current field values, refreshing
// updated_at. Unique-index conflicts surface the same way as in Create.
func (r *ImagesRepo) Update(ctx context.Context, img *domain.Image) error {
	if img.ID == 0 {
		return domain.NewValidationError("id", "image has no id")
	}
	now := time.Now().UTC()
	query := fmt.Sprintf(
		`UPDATE %s SET product_id = $1, name = $2, image_code = $3, image_file = $4, url = $5,
		 updated_at = $6 WHERE id = $7`, r.table)
	if _, err := r.exec(ctx, query,
		img.ProductID, img.Name, img.ImageCode, img.ImageFile, img.URL, now, img.ID); err != nil {
		return fmt.Errorf("failed to update image: %w", err)
	}
	img.UpdatedAt = now
	return nil
}

// Delete removes the image row by id and best-effort removes the stored
// file. A file-removal failure is logged and swallowed.
func (r *ImagesRepo) Delete(ctx context.Context, img *domain.Image) error {
	if img.ID == 0 {
		return domain.NewValidationError("id", "image has no id")
	}
	if r.files != nil && img.ImageFile.Valid && img.ImageFile.String != "" {
		if err := r.files.Remove(img.ImageFile.String); err != nil {
			r.logger.Warn("failed to remove image file",
				zap.Int64("store_id", r.storeID),
				zap.String("path", img.ImageFile.String),
				zap.Error(err))
		}
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table)
	if _, err := r.exec(ctx, query, img.ID); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// Exists reports whether any image matches the criteria without
// materializing rows. Used for image_code uniqueness pre-checks.
func (r *ImagesRepo) Exists(ctx context.Context, f Filter) (bool, error) {
	where, params, err := buildWhere(f, imageColumns)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s)", r.table, where)
	var exists bool
	if err := r.queryRowScan(ctx, query, params, &exists); err != nil {
		return false, fmt.Errorf("failed to check image existence: %w", err)
	}
	return exists, nil
}
