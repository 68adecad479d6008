package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"catalog-host/internal/domain"
	"catalog-host/internal/repository"
	"catalog-host/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSearcher struct {
	gotParams service.SearchParams
	resp      *service.SearchResponse
	err       error
}

func (f *fakeSearcher) Search(_ context.Context, p service.SearchParams) (*service.SearchResponse, error) {
	f.gotParams = p
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func okResponse() *service.SearchResponse {
	return &service.SearchResponse{
		Success:    true,
		Query:      "football",
		StoreID:    7,
		StoreName:  "Sports Hub",
		Count:      1,
		SearchType: "exact",
		Results: []service.SearchResult{
			{ProductName: "Football", CategoryName: "Sportswear", Images: []service.SearchImage{}, SimilarityScore: 100},
		},
	}
}

func TestSearchHandler_GetSuccess(t *testing.T) {
	fake := &fakeSearcher{resp: okResponse()}
	h := NewSearchHandler(fake, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/search?store_id=7&product_name=football&min_price=100&sort=price_asc", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, int64(7), fake.gotParams.StoreID)
	assert.Equal(t, "football", fake.gotParams.Query)
	require.NotNil(t, fake.gotParams.MinPrice)
	assert.Equal(t, 100.0, *fake.gotParams.MinPrice)
	assert.Nil(t, fake.gotParams.MaxPrice)
	assert.Equal(t, "price_asc", fake.gotParams.Sort)

	var body service.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "exact", body.SearchType)
}

func TestSearchHandler_PostFormParams(t *testing.T) {
	fake := &fakeSearcher{resp: okResponse()}
	h := NewSearchHandler(fake, zap.NewNop())

	form := url.Values{}
	form.Set("store_name", "Sports Hub")
	form.Set("product_name", "football")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sports Hub", fake.gotParams.StoreName)
	assert.Equal(t, "football", fake.gotParams.Query)
}

func TestSearchHandler_MissingProductName(t *testing.T) {
	h := NewSearchHandler(&fakeSearcher{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?store_id=7", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "product_name")
}

func TestSearchHandler_BadPrice(t *testing.T) {
	h := NewSearchHandler(&fakeSearcher{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/search?store_id=7&product_name=ball&min_price=abc", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_StoreNotFound(t *testing.T) {
	fake := &fakeSearcher{err: fmt.Errorf("store 99: %w", repository.ErrNotFound)}
	h := NewSearchHandler(fake, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?store_id=99&product_name=ball", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchHandler_ValidationErrorIs400(t *testing.T) {
	fake := &fakeSearcher{err: domain.NewValidationError("sort", "sort must be relevance, price_asc or price_desc")}
	h := NewSearchHandler(fake, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?store_id=7&product_name=ball&sort=bogus", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_InternalErrorIs500(t *testing.T) {
	fake := &fakeSearcher{err: fmt.Errorf("db down")}
	h := NewSearchHandler(fake, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?store_id=7&product_name=ball", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSearchHandler_MethodNotAllowed(t *testing.T) {
	h := NewSearchHandler(&fakeSearcher{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
