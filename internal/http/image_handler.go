package httpapi

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"catalog-host/internal/domain"
	"catalog-host/internal/imagecode"
	"catalog-host/internal/repository"
	"catalog-host/internal/service"

	"go.uber.org/zap"
)

// FileOpener reads a stored image file by its row path
type FileOpener interface {
	Open(rel string) (io.ReadCloser, error)
}

// ImageViewHandler serves image bytes at the public per-store URL
// /images/{store}/{category}/{product}/{image_code}. Path pieces are
// slugs of the display names and are verified against the record before
// anything is served.
type ImageViewHandler struct {
	catalog *service.CatalogService
	files   FileOpener
	logger  *zap.Logger
}

// NewImageViewHandler creates the public image view handler
func NewImageViewHandler(catalog *service.CatalogService, files FileOpener, logger *zap.Logger) *ImageViewHandler {
	return &ImageViewHandler{catalog: catalog, files: files, logger: logger}
}

// View handles GET /images/...
func (h *ImageViewHandler) View(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/images/"), "/"), "/")
	if len(parts) != 4 {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	storeSlug, categorySlug, productSlug, code := parts[0], parts[1], parts[2], parts[3]

	st, err := h.resolveStoreBySlug(r.Context(), storeSlug)
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	img, err := h.catalog.GetImageByCode(r.Context(), st.ID, code)
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	// the URL path must match the image's actual product and category
	if !h.pathMatches(r.Context(), st.ID, img, categorySlug, productSlug) {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	if img.ImageFile.Valid && img.ImageFile.String != "" {
		h.serveFile(w, img)
		return
	}
	if img.URL.Valid && img.URL.String != "" {
		http.Redirect(w, r, img.URL.String, http.StatusFound)
		return
	}
	writeError(w, http.StatusNotFound, "image has no content")
}

func (h *ImageViewHandler) resolveStoreBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	stores, err := h.catalog.Stores().ListStores(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range stores {
		if imagecode.Slugify(st.Name) == slug {
			return st, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (h *ImageViewHandler) pathMatches(ctx context.Context, storeID int64, img *domain.Image, categorySlug, productSlug string) bool {
	product, err := h.catalog.GetProduct(ctx, storeID, img.ProductID)
	if err != nil {
		return false
	}
	if imagecode.Slugify(product.Name) != productSlug {
		return false
	}
	categories, err := h.catalog.ListCategories(ctx, storeID)
	if err != nil {
		return false
	}
	for _, c := range categories {
		if c.ID == product.CategoryID {
			return imagecode.Slugify(c.Name) == categorySlug
		}
	}
	return false
}

// serveFile streams the stored file; a storage read failure is the
// 404-equivalent for this endpoint.
func (h *ImageViewHandler) serveFile(w http.ResponseWriter, img *domain.Image) {
	f, err := h.files.Open(img.ImageFile.String)
	if err != nil {
		h.logger.Warn("image file unreadable",
			zap.String("path", img.ImageFile.String), zap.Error(err))
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension(path.Ext(img.ImageFile.String))
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}
