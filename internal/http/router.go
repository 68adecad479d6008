package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router http.ServeMux wrapper with explicit route registration
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler wraps the mux with the shared middleware stack
func (r *Router) Handler() http.Handler {
	return WithRequestID(WithRecovery(r.logger, r.mux))
}

// RegisterSearchRoutes registers the public search API
func (r *Router) RegisterSearchRoutes(h *SearchHandler) {
	r.Handle("/api/v1/search", h.Search)
}

// RegisterImageRoutes registers the public image view
func (r *Router) RegisterImageRoutes(h *ImageViewHandler) {
	r.Handle("/images/", h.View)
}

// RegisterAdminRoutes registers store/catalog management
func (r *Router) RegisterAdminRoutes(h *AdminHandler) {
	r.Handle("/admin/api/v1/stores", h.Stores)
	r.Handle("/admin/api/v1/stores/", h.StoreSubtree)
	r.Handle("/admin/api/v1/catalog/export", h.ExportCatalog)
}
