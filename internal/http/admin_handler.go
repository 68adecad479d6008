package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"catalog-host/internal/domain"
	"catalog-host/internal/repository"
	"catalog-host/internal/service"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// AdminHandler store and catalog management API
type AdminHandler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

// NewAdminHandler creates the admin handler
func NewAdminHandler(catalog *service.CatalogService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{catalog: catalog, logger: logger}
}

// respondError maps the error taxonomy onto HTTP statuses
func (h *AdminHandler) respondError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrProvisionFailed):
		// the store row exists; provisioning retries lazily on next access
		writeError(w, http.StatusInternalServerError, "store tables could not be provisioned, retry the operation")
	default:
		h.logger.Error("admin request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func ok(data any) map[string]any {
	return map[string]any{"success": true, "result": data}
}

// JSON views of the domain rows; nullable columns become pointers so
// absent values encode as null instead of sql.Null* wrappers.

type storeJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type categoryJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type productJSON struct {
	ID                 int64     `json:"id"`
	CategoryID         int64     `json:"category_id"`
	Name               string    `json:"name"`
	MarkedPrice        *float64  `json:"marked_price"`
	MinDiscountedPrice *float64  `json:"min_discounted_price"`
	DiscountPercent    *int      `json:"discount_percent,omitempty"`
	Description        *string   `json:"description"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type imageJSON struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name"`
	ImageCode string    `json:"image_code"`
	ImageFile *string   `json:"image_file"`
	URL       *string   `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toStoreJSON(s *domain.Store) storeJSON {
	return storeJSON{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
}

func toStoreListJSON(stores []*domain.Store) []storeJSON {
	out := make([]storeJSON, 0, len(stores))
	for _, s := range stores {
		out = append(out, toStoreJSON(s))
	}
	return out
}

func toCategoryJSON(c *domain.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func toCategoryListJSON(categories []*domain.Category) []categoryJSON {
	out := make([]categoryJSON, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryJSON(c))
	}
	return out
}

func toProductJSON(p *domain.Product) productJSON {
	out := productJSON{
		ID: p.ID, CategoryID: p.CategoryID, Name: p.Name,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
	if p.MarkedPrice.Valid {
		v := p.MarkedPrice.Float64
		out.MarkedPrice = &v
	}
	if p.MinDiscountedPrice.Valid {
		v := p.MinDiscountedPrice.Float64
		out.MinDiscountedPrice = &v
	}
	if pct, ok := p.DiscountPercent(); ok {
		out.DiscountPercent = &pct
	}
	if p.Description.Valid {
		v := p.Description.String
		out.Description = &v
	}
	return out
}

func toProductListJSON(products []*domain.Product) []productJSON {
	out := make([]productJSON, 0, len(products))
	for _, p := range products {
		out = append(out, toProductJSON(p))
	}
	return out
}

func toImageJSON(img *domain.Image) imageJSON {
	out := imageJSON{
		ID: img.ID, ProductID: img.ProductID, Name: img.Name, ImageCode: img.ImageCode,
		CreatedAt: img.CreatedAt, UpdatedAt: img.UpdatedAt,
	}
	if img.ImageFile.Valid {
		v := img.ImageFile.String
		out.ImageFile = &v
	}
	if img.URL.Valid {
		v := img.URL.String
		out.URL = &v
	}
	return out
}

func toImageListJSON(images []*domain.Image) []imageJSON {
	out := make([]imageJSON, 0, len(images))
	for _, img := range images {
		out = append(out, toImageJSON(img))
	}
	return out
}

// Stores handles /admin/api/v1/stores
func (h *AdminHandler) Stores(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		stores, err := h.catalog.Stores().ListStores(r.Context())
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ok(toStoreListJSON(stores)))
	case http.MethodPost:
		var body struct {
			Name string `json:"name"`
		}
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed JSON body")
			return
		}
		st, err := h.catalog.Stores().CreateStore(r.Context(), body.Name)
		if err != nil {
			// a provisioning failure still created the store row
			if st != nil && errors.Is(err, repository.ErrProvisionFailed) {
				h.logger.Warn("store created with deferred provisioning", zap.Int64("store_id", st.ID))
				writeJSON(w, http.StatusCreated, ok(toStoreJSON(st)))
				return
			}
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ok(toStoreJSON(st)))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// StoreSubtree routes everything under /admin/api/v1/stores/{id}/...
func (h *AdminHandler) StoreSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/admin/api/v1/stores/"), "/")
	parts := strings.Split(rest, "/")
	storeID := parseInt64(parts[0])
	if storeID == 0 {
		writeError(w, http.StatusBadRequest, "store id must be numeric")
		return
	}

	switch {
	case len(parts) == 1:
		h.storeByID(w, r, storeID)
	case len(parts) == 2 && parts[1] == "categories":
		h.categories(w, r, storeID)
	case len(parts) == 3 && parts[1] == "categories":
		h.categoryByID(w, r, storeID, parseInt64(parts[2]))
	case len(parts) == 2 && parts[1] == "products":
		h.products(w, r, storeID)
	case len(parts) == 3 && parts[1] == "products":
		h.productByID(w, r, storeID, parseInt64(parts[2]))
	case len(parts) == 4 && parts[1] == "products" && parts[3] == "images":
		h.productImages(w, r, storeID, parseInt64(parts[2]))
	case len(parts) == 3 && parts[1] == "images":
		h.imageByID(w, r, storeID, parseInt64(parts[2]))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *AdminHandler) storeByID(w http.ResponseWriter, r *http.Request, storeID int64) {
	switch r.Method {
	case http.MethodGet:
		st, err := h.catalog.Stores().GetStore(r.Context(), storeID)
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ok(toStoreJSON(st)))
	case http.MethodDelete:
		if err := h.catalog.Stores().DeleteStore(r.Context(), storeID); err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ok(nil))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) categories(w http.ResponseWriter, r *http.Request, storeID int64) {
	switch r.Method {
	case http.MethodGet:
		categories, err := h.catalog.ListCategories(r.Context(), storeID)
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ok(toCategoryListJSON(categories)))
	case http.MethodPost:
		var body struct {
			Name string `json:"name"`
		}
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed JSON body")
			return
		}
		c, err := h.catalog.CreateCategory(r.Context(), storeID, body.Name)
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ok(toCategoryJSON(c)))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) categoryByID(w http.ResponseWriter, r *http.Request, storeID, categoryID int64) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := h.catalog.DeleteCategory(r.Context(), storeID, categoryID); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(nil))
}

type productBody struct {
	CategoryID         int64    `json:"category_id"`
	Name               string   `json:"name"`
	MarkedPrice        *float64 `json:"marked_price"`
	MinDiscountedPrice *float64 `json:"min_discounted_price"`
	Description        *string  `json:"description"`
}

func (h *AdminHandler) products(w http.ResponseWriter, r *http.Request, storeID int64) {
	switch r.Method {
	case http.MethodGet:
		products, err := h.catalog.ListProducts(r.Context(), storeID)
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ok(toProductListJSON(products)))
	case http.MethodPost:
		var body productBody
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed JSON body")
			return
		}
		p, err := h.catalog.CreateProduct(r.Context(), storeID, service.ProductInput{
			CategoryID:         body.CategoryID,
			Name:               body.Name,
			MarkedPrice:        body.MarkedPrice,
			MinDiscountedPrice: body.MinDiscountedPrice,
			Description:        body.Description,
		})
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ok(toProductJSON(p)))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) productByID(w http.ResponseWriter, r *http.Request, storeID, productID int64) {
	switch r.Method {
	case http.MethodGet:
		p, err := h.catalog.GetProduct(r.Context(), storeID, productID)
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ok(toProductJSON(p)))
	case http.MethodPut:
		var body productBody
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed JSON body")
			return
		}
		p, err := h.catalog.UpdateProduct(r.Context(), storeID, service.ProductInput{
			ID:                 productID,
			CategoryID:         body.CategoryID,
			Name:               body.Name,
			MarkedPrice:        body.MarkedPrice,
			MinDiscountedPrice: body.MinDiscountedPrice,
			Description:        body.Description,
		})
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ok(toProductJSON(p)))
	case http.MethodDelete:
		if err := h.catalog.DeleteProduct(r.Context(), storeID, productID); err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ok(nil))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type imageBody struct {
	Name      string `json:"name"`
	ImageCode string `json:"image_code"`
	ImageFile string `json:"image_file"`
	URL       string `json:"url"`
}

func (h *AdminHandler) productImages(w http.ResponseWriter, r *http.Request, storeID, productID int64) {
	switch r.Method {
	case http.MethodGet:
		images, err := h.catalog.ListProductImages(r.Context(), storeID, productID)
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ok(toImageListJSON(images)))
	case http.MethodPost:
		var body imageBody
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed JSON body")
			return
		}
		img, err := h.catalog.SaveImage(r.Context(), storeID, service.ImageInput{
			ProductID: productID,
			Name:      body.Name,
			Code:      body.ImageCode,
			FilePath:  body.ImageFile,
			URL:       body.URL,
		})
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ok(toImageJSON(img)))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) imageByID(w http.ResponseWriter, r *http.Request, storeID, imageID int64) {
	switch r.Method {
	case http.MethodPut:
		var body struct {
			imageBody
			ProductID int64 `json:"product_id"`
		}
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed JSON body")
			return
		}
		img, err := h.catalog.SaveImage(r.Context(), storeID, service.ImageInput{
			ID:        imageID,
			ProductID: body.ProductID,
			Name:      body.Name,
			Code:      body.ImageCode,
			FilePath:  body.ImageFile,
			URL:       body.URL,
		})
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ok(toImageJSON(img)))
	case http.MethodDelete:
		if err := h.catalog.DeleteImage(r.Context(), storeID, imageID); err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ok(nil))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ExportCatalog handles GET /admin/api/v1/catalog/export?store_id=N
// and returns the store's catalog as an Excel workbook.
func (h *AdminHandler) ExportCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	storeID := parseInt64(r.URL.Query().Get("store_id"))
	if storeID == 0 {
		writeError(w, http.StatusBadRequest, "store_id is required")
		return
	}
	if _, err := h.catalog.Stores().GetStore(r.Context(), storeID); err != nil {
		h.respondError(w, err)
		return
	}

	categories, err := h.catalog.ListCategories(r.Context(), storeID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	products, err := h.catalog.ListProducts(r.Context(), storeID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	imageCounts := make(map[int64]int, len(products))
	for _, p := range products {
		images, err := h.catalog.ListProductImages(r.Context(), storeID, p.ID)
		if err != nil {
			h.respondError(w, err)
			return
		}
		imageCounts[p.ID] = len(images)
	}

	data, err := GenerateCatalogExport(categories, products, imageCounts)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=catalog_store_%d.xlsx", storeID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
