package search

import "github.com/kailas-cloud/scout/internal/domain/search/match"

// FilterByPrice keeps results priced at or below maxPrice, in order.
// Without a ceiling (ok=false) results are returned unchanged.
func FilterByPrice(results []match.Result, maxPrice float64, ok bool) []match.Result {
	if !ok {
		return results
	}
	out := make([]match.Result, 0, len(results))
	for _, r := range results {
		if r.Experience().Price() <= maxPrice {
			out = append(out, r)
		}
	}
	return out
}
