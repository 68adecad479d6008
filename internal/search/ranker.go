// Package search implements the two-phase product search: an exact
// (case-insensitive substring) pass, then a fuzzy fallback scored with
// a token-order-insensitive similarity metric.
package search

import (
	"context"
	"sort"

	"catalog-host/internal/domain"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Search type reported back to the caller
const (
	TypeExact = "exact"
	TypeFuzzy = "fuzzy"
)

// Sort modes
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// ProductSource supplies candidate products for one store. Backed by
// the store's products record manager.
type ProductSource interface {
	// FilterNameContains returns products whose name contains the query
	// case-insensitively.
	FilterNameContains(ctx context.Context, query string) ([]*domain.Product, error)
	// ListAll returns every product in the store.
	ListAll(ctx context.Context) ([]*domain.Product, error)
}

// Request one search invocation scoped to a single store
type Request struct {
	Query    string
	MinPrice *float64
	MaxPrice *float64
	Sort     string // SortRelevance (default), SortPriceAsc, SortPriceDesc
}

// Candidate a surviving product with its similarity score
type Candidate struct {
	Product *domain.Product
	Score   int // 0-100
}

// Ranker scores and orders candidates
type Ranker struct {
	ScoreCutoff int // fuzzy-phase floor, default 60
	FuzzyLimit  int // max distinct names kept from the fuzzy pass, default 10
}

// NewRanker creates a ranker with the given tunables
func NewRanker(scoreCutoff, fuzzyLimit int) *Ranker {
	if scoreCutoff <= 0 {
		scoreCutoff = 60
	}
	if fuzzyLimit <= 0 {
		fuzzyLimit = 10
	}
	return &Ranker{ScoreCutoff: scoreCutoff, FuzzyLimit: fuzzyLimit}
}

// Score computes the canonical similarity between a query and a
// product name: token-order-insensitive, 0-100.
func Score(query, name string) int {
	return fuzzy.TokenSortRatio(query, name)
}

// Rank runs both phases, rescores, applies price bounds and the sort
// mode, and returns the final ordered candidates plus the search type.
// An empty candidate list is a valid "no matches" outcome, not an error.
func (r *Ranker) Rank(ctx context.Context, src ProductSource, req Request) ([]Candidate, string, error) {
	searchType := TypeExact
	products, err := src.FilterNameContains(ctx, req.Query)
	if err != nil {
		return nil, "", err
	}

	if len(products) == 0 {
		searchType = TypeFuzzy
		products, err = r.fuzzyCandidates(ctx, src, req.Query)
		if err != nil {
			return nil, "", err
		}
		if len(products) == 0 {
			return []Candidate{}, TypeFuzzy, nil
		}
	}

	// Every surviving candidate is rescored with the same metric
	// regardless of which phase produced it.
	candidates := make([]Candidate, 0, len(products))
	for _, p := range products {
		candidates = append(candidates, Candidate{Product: p, Score: Score(req.Query, p.Name)})
	}

	candidates = filterByPrice(candidates, req.MinPrice, req.MaxPrice)
	sortCandidates(candidates, req.Sort)
	return candidates, searchType, nil
}

// fuzzyCandidates fetches the whole store and keeps products whose
// names are among the top-N distinct names at or above the score floor.
func (r *Ranker) fuzzyCandidates(ctx context.Context, src ProductSource, query string) ([]*domain.Product, error) {
	all, err := src.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	type nameScore struct {
		name  string
		score int
	}
	seen := map[string]bool{}
	scored := []nameScore{}
	for _, p := range all {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		if s := Score(query, p.Name); s >= r.ScoreCutoff {
			scored = append(scored, nameScore{name: p.Name, score: s})
		}
	}
	if len(scored) == 0 {
		return nil, nil
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > r.FuzzyLimit {
		scored = scored[:r.FuzzyLimit]
	}

	kept := map[string]bool{}
	for _, ns := range scored {
		kept[ns.name] = true
	}
	matched := []*domain.Product{}
	for _, p := range all {
		if kept[p.Name] {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// filterByPrice drops candidates whose min_discounted_price falls
// outside the given bounds. Candidates with no price are never dropped.
func filterByPrice(candidates []Candidate, minPrice, maxPrice *float64) []Candidate {
	if minPrice == nil && maxPrice == nil {
		return candidates
	}
	kept := candidates[:0]
	for _, c := range candidates {
		price := c.Product.MinDiscountedPrice
		if price.Valid {
			if minPrice != nil && price.Float64 < *minPrice {
				continue
			}
			if maxPrice != nil && price.Float64 > *maxPrice {
				continue
			}
		}
		kept = append(kept, c)
	}
	return kept
}

// sortCandidates orders the result. All sorts are stable so equal keys
// preserve insertion order, which keeps tie-breaking deterministic.
func sortCandidates(candidates []Candidate, mode string) {
	switch mode {
	case SortPriceAsc:
		sort.SliceStable(candidates, func(i, j int) bool {
			return priceLess(candidates[i], candidates[j])
		})
	case SortPriceDesc:
		sort.SliceStable(candidates, func(i, j int) bool {
			return priceGreater(candidates[i], candidates[j])
		})
	default: // relevance
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})
	}
}

// priceLess orders by ascending price with null prices last
func priceLess(a, b Candidate) bool {
	pa, pb := a.Product.MinDiscountedPrice, b.Product.MinDiscountedPrice
	if pa.Valid && pb.Valid {
		return pa.Float64 < pb.Float64
	}
	return pa.Valid && !pb.Valid
}

// priceGreater orders by descending price with null prices last
func priceGreater(a, b Candidate) bool {
	pa, pb := a.Product.MinDiscountedPrice, b.Product.MinDiscountedPrice
	if pa.Valid && pb.Valid {
		return pa.Float64 > pb.Float64
	}
	return pa.Valid && !pb.Valid
}
