package search

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"catalog-host/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves candidates from a fixed product list
type fakeSource struct {
	products []*domain.Product
	listErr  error
}

func (f *fakeSource) FilterNameContains(_ context.Context, query string) ([]*domain.Product, error) {
	matched := []*domain.Product{}
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (f *fakeSource) ListAll(_ context.Context) ([]*domain.Product, error) {
	return f.products, f.listErr
}

func product(id int64, name string, price *float64) *domain.Product {
	p := &domain.Product{ID: id, CategoryID: 1, Name: name}
	if price != nil {
		p.MinDiscountedPrice = sql.NullFloat64{Float64: *price, Valid: true}
	}
	return p
}

func fp(v float64) *float64 { return &v }

func TestRank_SubstringMatchIsExact(t *testing.T) {
	src := &fakeSource{products: []*domain.Product{
		product(1, "Football", fp(2000)),
		product(2, "Basketball", fp(1200)),
		product(3, "Tennis Racket", fp(900)),
	}}

	candidates, searchType, err := NewRanker(60, 10).Rank(context.Background(), src, Request{Query: "ball"})
	require.NoError(t, err)
	assert.Equal(t, TypeExact, searchType)
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.Contains(t, strings.ToLower(c.Product.Name), "ball")
		assert.GreaterOrEqual(t, c.Score, 0)
		assert.LessOrEqual(t, c.Score, 100)
	}
}

func TestRank_MisspellingFallsBackToFuzzy(t *testing.T) {
	src := &fakeSource{products: []*domain.Product{
		product(1, "Football", fp(2000)),
		product(2, "Tennis Racket", fp(900)),
	}}

	candidates, searchType, err := NewRanker(60, 10).Rank(context.Background(), src, Request{Query: "fotbal"})
	require.NoError(t, err)
	assert.Equal(t, TypeFuzzy, searchType)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Football", candidates[0].Product.Name)
	assert.GreaterOrEqual(t, candidates[0].Score, 60)
}

// Word order must not matter: a reordered multi-word query still ranks
// the intended product first.
func TestRank_TokenOrderInsensitive(t *testing.T) {
	src := &fakeSource{products: []*domain.Product{
		product(1, "Kala Patthar Basketball", fp(1500)),
		product(2, "Basketball", fp(1200)),
	}}

	candidates, searchType, err := NewRanker(60, 10).Rank(context.Background(), src,
		Request{Query: "basketball kala patthar"})
	require.NoError(t, err)
	assert.Equal(t, TypeFuzzy, searchType)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "Kala Patthar Basketball", candidates[0].Product.Name)
	assert.Equal(t, 100, candidates[0].Score)
}

func TestRank_NoMatchesIsEmptyNotError(t *testing.T) {
	src := &fakeSource{products: []*domain.Product{
		product(1, "Tennis Racket", fp(900)),
	}}

	candidates, searchType, err := NewRanker(60, 10).Rank(context.Background(), src, Request{Query: "xyzzy"})
	require.NoError(t, err)
	assert.Equal(t, TypeFuzzy, searchType)
	assert.Empty(t, candidates)
}

func TestRank_EmptyStore(t *testing.T) {
	src := &fakeSource{}
	candidates, searchType, err := NewRanker(60, 10).Rank(context.Background(), src, Request{Query: "ball"})
	require.NoError(t, err)
	assert.Equal(t, TypeFuzzy, searchType)
	assert.Empty(t, candidates)
}

func TestRank_MinPriceFilter(t *testing.T) {
	src := &fakeSource{products: []*domain.Product{
		product(1, "Football Pro", fp(2000)),
		product(2, "Football Basic", fp(900)),
		product(3, "Football Mid", fp(1200)),
	}}

	candidates, _, err := NewRanker(60, 10).Rank(context.Background(), src,
		Request{Query: "football", MinPrice: fp(1500)})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Football Pro", candidates[0].Product.Name)
}

func TestRank_MaxPriceFilter(t *testing.T) {
	src := &fakeSource{products: []*domain.Product{
		product(1, "Football Pro", fp(2000)),
		product(2, "Football Basic", fp(900)),
	}}

	candidates, _, err := NewRanker(60, 10).Rank(context.Background(), src,
		Request{Query: "football", MaxPrice: fp(1000)})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Football Basic", candidates[0].Product.Name)
}

// A product without a price is never dropped by price bounds.
func TestRank_UnpricedProductSurvivesPriceFilter(t *testing.T) {
	src := &fakeSource{products: []*domain.Product{
		product(1, "Football Pro", fp(2000)),
		product(2, "Football Unpriced", nil),
	}}

	candidates, _, err := NewRanker(60, 10).Rank(context.Background(), src,
		Request{Query: "football", MinPrice: fp(2500)})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Football Unpriced", candidates[0].Product.Name)
}

func TestRank_SortPriceAscending(t *testing.T) {
	src := &fakeSource{products: []*domain.Product{
		product(1, "Football Pro", fp(2000)),
		product(2, "Football Basic", fp(900)),
		product(3, "Football Mid", fp(1200)),
	}}

	candidates, _, err := NewRanker(60, 10).Rank(context.Background(), src,
		Request{Query: "football", Sort: SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, 900.0, candidates[0].Product.MinDiscountedPrice.Float64)
	assert.Equal(t, 1200.0, candidates[1].Product.MinDiscountedPrice.Float64)
	assert.Equal(t, 2000.0, candidates[2].Product.MinDiscountedPrice.Float64)
}

func TestRank_SortPriceDescendingNullsLast(t *testing.T) {
	src := &fakeSource{products: []*domain.Product{
		product(1, "Football Basic", fp(900)),
		product(2, "Football Unpriced", nil),
		product(3, "Football Pro", fp(2000)),
	}}

	candidates, _, err := NewRanker(60, 10).Rank(context.Background(), src,
		Request{Query: "football", Sort: SortPriceDesc})
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, 2000.0, candidates[0].Product.MinDiscountedPrice.Float64)
	assert.Equal(t, 900.0, candidates[1].Product.MinDiscountedPrice.Float64)
	assert.False(t, candidates[2].Product.MinDiscountedPrice.Valid)
}

func TestRank_RelevanceSortByDefault(t *testing.T) {
	src := &fakeSource{products: []*domain.Product{
		product(1, "Football Boots Deluxe Edition", fp(3000)),
		product(2, "Football", fp(2000)),
	}}

	candidates, _, err := NewRanker(60, 10).Rank(context.Background(), src, Request{Query: "football"})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Football", candidates[0].Product.Name)
	assert.GreaterOrEqual(t, candidates[0].Score, candidates[1].Score)
}

// The fuzzy pass keeps at most FuzzyLimit distinct names, but every row
// sharing a kept name survives.
func TestFuzzyCandidates_LimitIsPerDistinctName(t *testing.T) {
	products := []*domain.Product{}
	for i := int64(1); i <= 4; i++ {
		products = append(products, product(i, "Fotball Classic", fp(float64(500*i))))
	}
	src := &fakeSource{products: products}

	candidates, searchType, err := NewRanker(60, 1).Rank(context.Background(), src, Request{Query: "football classic"})
	require.NoError(t, err)
	assert.Equal(t, TypeFuzzy, searchType)
	assert.Len(t, candidates, 4)
}

func TestScore_Range(t *testing.T) {
	assert.Equal(t, 100, Score("football", "Football"))
	assert.GreaterOrEqual(t, Score("fotbal", "Football"), 60)
	assert.Less(t, Score("xyzzy", "Football"), 60)
}
