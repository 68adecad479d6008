package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-host/internal/domain"
	"catalog-host/internal/imagecode"
	"catalog-host/internal/repository"
	"catalog-host/internal/search"
	"catalog-host/internal/store"

	"go.uber.org/zap"
)

// SearchParams one search request. Either StoreID or StoreName
// identifies the tenant; Query is required.
type SearchParams struct {
	StoreID   int64
	StoreName string
	Query     string
	MinPrice  *float64
	MaxPrice  *float64
	Sort      string
}

// SearchResponse the JSON body returned for a search
type SearchResponse struct {
	Success    bool           `json:"success"`
	Query      string         `json:"query"`
	StoreID    int64          `json:"store_id"`
	StoreName  string         `json:"store_name"`
	Count      int            `json:"count"`
	SearchType string         `json:"search_type"`
	Message    string         `json:"message,omitempty"`
	Results    []SearchResult `json:"results"`
}

// SearchResult one ranked product
type SearchResult struct {
	ProductName        string        `json:"product_name"`
	CategoryName       string        `json:"category_name"`
	Images             []SearchImage `json:"images"`
	ImageCount         int           `json:"image_count"`
	SimilarityScore    int           `json:"similarity_score"`
	MarkedPrice        *float64      `json:"marked_price,omitempty"`
	MinDiscountedPrice *float64      `json:"min_discounted_price,omitempty"`
	DiscountPercent    *int          `json:"discount_percent,omitempty"`
	Description        *string       `json:"description,omitempty"`
}

// SearchImage one image attached to a result
type SearchImage struct {
	ImageLabel string `json:"image_label"`
	ImageCode  string `json:"image_code"`
	ImageURL   string `json:"image_url"`
}

// SearchService runs tenant-scoped product searches through the record
// managers and assembles response payloads.
type SearchService struct {
	db       *sql.DB
	stores   *repository.StoresRepo
	ranker   *search.Ranker
	cache    store.KV // optional
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSearchService creates the search service. cache may be nil.
func NewSearchService(db *sql.DB, stores *repository.StoresRepo, ranker *search.Ranker, cache store.KV, cacheTTL time.Duration, logger *zap.Logger) *SearchService {
	return &SearchService{db: db, stores: stores, ranker: ranker, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// productSource adapts the products record manager to the ranker
type productSource struct {
	repo *repository.ProductsRepo
}

func (s productSource) FilterNameContains(ctx context.Context, query string) ([]*domain.Product, error) {
	f := repository.Filter{Criteria: []repository.Criterion{repository.Contains("name", query)}}
	return s.repo.Filter(ctx, f)
}

func (s productSource) ListAll(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.ListAll(ctx)
}

// Search resolves the store, ranks candidates and assembles the
// response. Returns repository.ErrNotFound (wrapped) for an unknown
// store and *domain.ValidationError for unusable parameters.
func (s *SearchService) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	if p.Query == "" {
		return nil, domain.NewValidationError("product_name", "product_name parameter is required")
	}
	if p.MinPrice != nil && *p.MinPrice < 0 || p.MaxPrice != nil && *p.MaxPrice < 0 {
		return nil, domain.NewValidationError("price", "price bounds must not be negative")
	}
	switch p.Sort {
	case "", search.SortRelevance, search.SortPriceAsc, search.SortPriceDesc:
	default:
		return nil, domain.NewValidationError("sort", "sort must be relevance, price_asc or price_desc")
	}

	st, err := s.resolveStore(ctx, p)
	if err != nil {
		return nil, err
	}

	cacheKey := s.searchCacheKey(st.ID, p)
	if resp := s.cachedResponse(ctx, cacheKey); resp != nil {
		return resp, nil
	}

	src := productSource{repo: repository.NewProductsRepo(s.db, st.ID, s.logger)}
	candidates, searchType, err := s.ranker.Rank(ctx, src, search.Request{
		Query:    p.Query,
		MinPrice: p.MinPrice,
		MaxPrice: p.MaxPrice,
		Sort:     p.Sort,
	})
	if err != nil {
		return nil, err
	}

	resp := &SearchResponse{
		Success:    true,
		Query:      p.Query,
		StoreID:    st.ID,
		StoreName:  st.Name,
		SearchType: searchType,
		Results:    []SearchResult{},
	}
	if len(candidates) == 0 {
		resp.Message = fmt.Sprintf("No products found matching %q (fuzzy search threshold: %d%%)",
			p.Query, s.ranker.ScoreCutoff)
		s.cacheResponse(ctx, cacheKey, resp)
		return resp, nil
	}

	categories := repository.NewCategoriesRepo(s.db, st.ID, s.logger)
	images := repository.NewImagesRepo(s.db, st.ID, nil, s.logger)
	categoryNames := map[int64]string{}

	for _, c := range candidates {
		result, err := s.assembleResult(ctx, st, c, categories, images, categoryNames)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, result)
	}
	resp.Count = len(resp.Results)
	s.cacheResponse(ctx, cacheKey, resp)
	return resp, nil
}

func (s *SearchService) resolveStore(ctx context.Context, p SearchParams) (*domain.Store, error) {
	if p.StoreID > 0 {
		return s.stores.GetStore(ctx, p.StoreID)
	}
	if p.StoreName != "" {
		return s.stores.GetStoreByName(ctx, p.StoreName)
	}
	return nil, domain.NewValidationError("store_id", "store_id or store_name is required")
}

func (s *SearchService) assembleResult(
	ctx context.Context,
	st *domain.Store,
	c search.Candidate,
	categories *repository.CategoriesRepo,
	images *repository.ImagesRepo,
	categoryNames map[int64]string,
) (SearchResult, error) {
	p := c.Product

	categoryName, ok := categoryNames[p.CategoryID]
	if !ok {
		cat, err := categories.Get(ctx, repository.Eq("id", p.CategoryID))
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return SearchResult{}, err
			}
			// dangling reference is recovered as "no category"
			categoryName = ""
		} else {
			categoryName = cat.Name
		}
		categoryNames[p.CategoryID] = categoryName
	}

	imgs, err := images.Filter(ctx, repository.Filter{
		Criteria: []repository.Criterion{repository.Eq("product_id", p.ID)},
	})
	if err != nil {
		return SearchResult{}, err
	}

	imageResults := make([]SearchImage, 0, len(imgs))
	for _, img := range imgs {
		imageResults = append(imageResults, SearchImage{
			ImageLabel: img.Name,
			ImageCode:  img.ImageCode,
			ImageURL: fmt.Sprintf("/images/%s/%s/%s/%s",
				imagecode.Slugify(st.Name),
				imagecode.Slugify(categoryName),
				imagecode.Slugify(p.Name),
				img.ImageCode),
		})
	}

	result := SearchResult{
		ProductName:     p.Name,
		CategoryName:    categoryName,
		Images:          imageResults,
		ImageCount:      len(imageResults),
		SimilarityScore: c.Score,
	}
	if p.MarkedPrice.Valid {
		v := p.MarkedPrice.Float64
		result.MarkedPrice = &v
	}
	if p.MinDiscountedPrice.Valid {
		v := p.MinDiscountedPrice.Float64
		result.MinDiscountedPrice = &v
	}
	if pct, ok := p.DiscountPercent(); ok {
		result.DiscountPercent = &pct
	}
	if p.Description.Valid {
		v := p.Description.String
		result.Description = &v
	}
	return result, nil
}

// searchCacheKey hashes the query shape so equivalent requests share a
// cache entry.
func (s *SearchService) searchCacheKey(storeID int64, p SearchParams) string {
	min, max := "", ""
	if p.MinPrice != nil {
		min = fmt.Sprintf("%g", *p.MinPrice)
	}
	if p.MaxPrice != nil {
		max = fmt.Sprintf("%g", *p.MaxPrice)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", p.Query, min, max, p.Sort)))
	return fmt.Sprintf("search:%d:%x", storeID, sum[:8])
}

func (s *SearchService) cachedResponse(ctx context.Context, key string) *SearchResponse {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("search cache read failed", zap.Error(err))
		}
		return nil
	}
	var resp SearchResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *SearchService) cacheResponse(ctx context.Context, key string, resp *SearchResponse) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
		s.logger.Warn("search cache write failed", zap.Error(err))
	}
}
