package service

import (
	"context"
	"database/sql"
	"fmt"

	"catalog-host/internal/domain"
	"catalog-host/internal/imagecode"
	"catalog-host/internal/repository"
	"catalog-host/internal/store"

	"go.uber.org/zap"
)

// maxCodeRetries bounds the unique-violation retry loop for image code
// resolution. The pre-check and the insert are not one transaction, so
// a concurrent writer can invalidate a resolved code; the unique index
// is the source of truth and the loop re-resolves on conflict.
const maxCodeRetries = 3

// CatalogService orchestrates catalog writes and reads for any store.
// Record managers are constructed per call from the numeric store id;
// there is no per-tenant registry or cache of managers.
type CatalogService struct {
	db     *sql.DB
	stores *repository.StoresRepo
	files  repository.FileRemover
	cache  store.KV // optional; search responses are invalidated on writes
	logger *zap.Logger
}

// NewCatalogService creates the catalog service. files and cache may be nil.
func NewCatalogService(db *sql.DB, stores *repository.StoresRepo, files repository.FileRemover, cache store.KV, logger *zap.Logger) *CatalogService {
	return &CatalogService{db: db, stores: stores, files: files, cache: cache, logger: logger}
}

// Stores exposes the store registry
func (s *CatalogService) Stores() *repository.StoresRepo { return s.stores }

func (s *CatalogService) categories(storeID int64) *repository.CategoriesRepo {
	return repository.NewCategoriesRepo(s.db, storeID, s.logger)
}

func (s *CatalogService) products(storeID int64) *repository.ProductsRepo {
	return repository.NewProductsRepo(s.db, storeID, s.logger)
}

func (s *CatalogService) images(storeID int64) *repository.ImagesRepo {
	return repository.NewImagesRepo(s.db, storeID, s.files, s.logger)
}

// invalidateSearchCache drops the store's cached search responses after
// a catalog write. Best-effort: a stale entry only lives until its TTL.
func (s *CatalogService) invalidateSearchCache(ctx context.Context, storeID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, fmt.Sprintf("search:%d:*", storeID)); err != nil {
		s.logger.Warn("failed to invalidate search cache",
			zap.Int64("store_id", storeID), zap.Error(err))
	}
}

// ========== Categories ==========

// ListCategories returns the store's categories ordered by name
func (s *CatalogService) ListCategories(ctx context.Context, storeID int64) ([]*domain.Category, error) {
	return s.categories(storeID).ListAll(ctx)
}

// CreateCategory creates a category in the store
func (s *CatalogService) CreateCategory(ctx context.Context, storeID int64, name string) (*domain.Category, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "category name is required")
	}
	c, err := s.categories(storeID).Create(ctx, name)
	if err != nil {
		return nil, err
	}
	s.invalidateSearchCache(ctx, storeID)
	return c, nil
}

// DeleteCategory removes a category; its products and their images
// cascade at the database layer.
func (s *CatalogService) DeleteCategory(ctx context.Context, storeID, categoryID int64) error {
	repo := s.categories(storeID)
	c, err := repo.Get(ctx, repository.Eq("id", categoryID))
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, c); err != nil {
		return err
	}
	s.invalidateSearchCache(ctx, storeID)
	return nil
}

// ========== Products ==========

// ProductInput fields for creating or updating a product
type ProductInput struct {
	ID                 int64 // 0 on create
	CategoryID         int64
	Name               string
	MarkedPrice        *float64
	MinDiscountedPrice *float64
	Description        *string
}

func (in *ProductInput) validate() error {
	if in.Name == "" {
		return domain.NewValidationError("name", "product name is required")
	}
	if in.CategoryID == 0 {
		return domain.NewValidationError("category_id", "category is required")
	}
	if in.MarkedPrice != nil && *in.MarkedPrice < 0 {
		return domain.NewValidationError("marked_price", "price must not be negative")
	}
	if in.MinDiscountedPrice != nil && *in.MinDiscountedPrice < 0 {
		return domain.NewValidationError("min_discounted_price", "price must not be negative")
	}
	return nil
}

func (in *ProductInput) toDomain() *domain.Product {
	p := &domain.Product{ID: in.ID, CategoryID: in.CategoryID, Name: in.Name}
	if in.MarkedPrice != nil {
		p.MarkedPrice = sql.NullFloat64{Float64: *in.MarkedPrice, Valid: true}
	}
	if in.MinDiscountedPrice != nil {
		p.MinDiscountedPrice = sql.NullFloat64{Float64: *in.MinDiscountedPrice, Valid: true}
	}
	if in.Description != nil {
		p.Description = sql.NullString{String: *in.Description, Valid: true}
	}
	return p
}

// ListProducts returns the store's products ordered by name
func (s *CatalogService) ListProducts(ctx context.Context, storeID int64) ([]*domain.Product, error) {
	return s.products(storeID).ListAll(ctx)
}

// GetProduct returns one product by id
func (s *CatalogService) GetProduct(ctx context.Context, storeID, productID int64) (*domain.Product, error) {
	return s.products(storeID).Get(ctx, repository.Eq("id", productID))
}

// CreateProduct creates a product after checking the category reference
// belongs to the same store.
func (s *CatalogService) CreateProduct(ctx context.Context, storeID int64, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	ok, err := s.categories(storeID).Exists(ctx, repository.Eq("id", in.CategoryID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("category %d in store %d: %w", in.CategoryID, storeID, repository.ErrNotFound)
	}
	p, err := s.products(storeID).Create(ctx, in.toDomain())
	if err != nil {
		return nil, err
	}
	s.invalidateSearchCache(ctx, storeID)
	return p, nil
}

// UpdateProduct persists new field values for an existing product
func (s *CatalogService) UpdateProduct(ctx context.Context, storeID int64, in ProductInput) (*domain.Product, error) {
	if in.ID == 0 {
		return nil, domain.NewValidationError("id", "product id is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	repo := s.products(storeID)
	existing, err := repo.Get(ctx, repository.Eq("id", in.ID))
	if err != nil {
		return nil, err
	}
	updated := in.toDomain()
	updated.CreatedAt = existing.CreatedAt
	if err := repo.Update(ctx, updated); err != nil {
		return nil, err
	}
	s.invalidateSearchCache(ctx, storeID)
	return updated, nil
}

// DeleteProduct removes a product; its images cascade
func (s *CatalogService) DeleteProduct(ctx context.Context, storeID, productID int64) error {
	repo := s.products(storeID)
	p, err := repo.Get(ctx, repository.Eq("id", productID))
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, p); err != nil {
		return err
	}
	s.invalidateSearchCache(ctx, storeID)
	return nil
}

// ========== Images ==========

// ImageInput fields for registering or updating an image record.
// Exactly one of FilePath (stored file) or URL (remote reference) may
// be set as the byte source.
type ImageInput struct {
	ID        int64 // 0 on create
	ProductID int64
	Name      string
	Code      string // optional; auto-generated when empty
	FilePath  string // optional storage path
	URL       string // optional remote reference
}

// proposedCode picks the code base the way the original records did:
// caller-supplied code first, then file name, then URL basename, then
// the image name.
func (in *ImageInput) proposedCode() string {
	if in.Code != "" {
		return imagecode.Normalize(in.Code)
	}
	if in.FilePath != "" {
		return imagecode.Normalize(in.FilePath)
	}
	if in.URL != "" {
		return imagecode.FromURL(in.URL, in.Name)
	}
	return imagecode.Normalize(in.Name)
}

func (in *ImageInput) validate() error {
	if in.Name == "" {
		return domain.NewValidationError("name", "image name is required")
	}
	if in.ProductID == 0 {
		return domain.NewValidationError("product_id", "product is required")
	}
	if in.FilePath != "" && in.URL != "" {
		return domain.NewValidationError("image_file", "an image has either a stored file or a URL, not both")
	}
	return nil
}

func (in *ImageInput) toDomain(code string) *domain.Image {
	img := &domain.Image{ID: in.ID, ProductID: in.ProductID, Name: in.Name, ImageCode: code}
	if in.FilePath != "" {
		img.ImageFile = sql.NullString{String: in.FilePath, Valid: true}
	}
	if in.URL != "" {
		img.URL = sql.NullString{String: in.URL, Valid: true}
	}
	return img
}

// SaveImage creates or updates an image record, resolving the image
// code to be unique within the store. On a unique-index conflict the
// resolution is retried rather than surfaced.
func (s *CatalogService) SaveImage(ctx context.Context, storeID int64, in ImageInput) (*domain.Image, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	proposed := in.proposedCode()
	if proposed == "" {
		return nil, domain.NewValidationError("image_code", "image code cannot be empty")
	}

	repo := s.images(storeID)
	ok, err := s.products(storeID).Exists(ctx, repository.Eq("id", in.ProductID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("product %d in store %d: %w", in.ProductID, storeID, repository.ErrNotFound)
	}

	taken := func(ctx context.Context, code string) (bool, error) {
		f := repository.Filter{Criteria: []repository.Criterion{repository.Eq("image_code", code)}}
		if in.ID != 0 {
			// the conflicting row being the row under update is not a conflict
			f.Exclude = []repository.Criterion{repository.Eq("id", in.ID)}
		}
		return repo.Exists(ctx, f)
	}

	var lastErr error
	for attempt := 0; attempt < maxCodeRetries; attempt++ {
		code, err := imagecode.ResolveUnique(ctx, proposed, taken)
		if err != nil {
			return nil, err
		}
		img := in.toDomain(code)

		if in.ID == 0 {
			created, err := repo.Create(ctx, img)
			if err == nil {
				s.invalidateSearchCache(ctx, storeID)
				return created, nil
			}
			lastErr = err
		} else {
			err := repo.Update(ctx, img)
			if err == nil {
				s.invalidateSearchCache(ctx, storeID)
				return img, nil
			}
			lastErr = err
		}
		if !repository.IsUniqueViolation(lastErr) {
			return nil, lastErr
		}
		s.logger.Warn("image code conflict, retrying resolution",
			zap.Int64("store_id", storeID), zap.String("code", code), zap.Int("attempt", attempt+1))
	}
	return nil, fmt.Errorf("image code retries exhausted: %w", lastErr)
}

// ListProductImages returns a product's images, newest first
func (s *CatalogService) ListProductImages(ctx context.Context, storeID, productID int64) ([]*domain.Image, error) {
	f := repository.Filter{Criteria: []repository.Criterion{repository.Eq("product_id", productID)}}
	return s.images(storeID).Filter(ctx, f)
}

// GetImageByCode returns an image by its per-store code
func (s *CatalogService) GetImageByCode(ctx context.Context, storeID int64, code string) (*domain.Image, error) {
	return s.images(storeID).Get(ctx, repository.Eq("image_code", code))
}

// DeleteImage removes an image record and best-effort removes its file
func (s *CatalogService) DeleteImage(ctx context.Context, storeID, imageID int64) error {
	repo := s.images(storeID)
	img, err := repo.Get(ctx, repository.Eq("id", imageID))
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, img); err != nil {
		return err
	}
	s.invalidateSearchCache(ctx, storeID)
	return nil
}
