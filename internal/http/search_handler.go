package httpapi

import (
	"context"
	"errors"
	"net/http"

	"catalog-host/internal/domain"
	"catalog-host/internal/repository"
	"catalog-host/internal/service"

	"go.uber.org/zap"
)

// Searcher runs one tenant-scoped product search
type Searcher interface {
	Search(ctx context.Context, p service.SearchParams) (*service.SearchResponse, error)
}

// SearchHandler public search API
type SearchHandler struct {
	searcher Searcher
	logger   *zap.Logger
}

// NewSearchHandler creates the search handler
func NewSearchHandler(searcher Searcher, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, logger: logger}
}

// Search handles GET/POST /api/v1/search. Parameters come from the
// query string or form body interchangeably.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request parameters")
		return
	}

	param := func(key string) string {
		if v := r.PostFormValue(key); v != "" {
			return v
		}
		return r.URL.Query().Get(key)
	}

	query := param("product_name")
	if query == "" {
		writeError(w, http.StatusBadRequest, "product_name parameter is required")
		return
	}

	minPrice, ok := parseFloatPtr(param("min_price"))
	if !ok {
		writeError(w, http.StatusBadRequest, "min_price must be a number")
		return
	}
	maxPrice, ok := parseFloatPtr(param("max_price"))
	if !ok {
		writeError(w, http.StatusBadRequest, "max_price must be a number")
		return
	}

	params := service.SearchParams{
		StoreID:   parseInt64(param("store_id")),
		StoreName: param("store_name"),
		Query:     query,
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		Sort:      param("sort"),
	}

	resp, err := h.searcher.Search(r.Context(), params)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "store not found")
		default:
			h.logger.Error("search failed",
				zap.String("query", query),
				zap.String("request_id", w.Header().Get(requestIDHeader)),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "search failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
