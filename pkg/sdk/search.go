package scout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/scout/internal/domain"
	searchuc "github.com/kailas-cloud/scout/internal/usecase/search"
)

// defaultClientKey is the rate limit key of searches without ForClient.
const defaultClientKey = "sdk"

// SearchOption refines a single search.
type SearchOption func(*searchParams)

type searchParams struct {
	Query        string   `json:"query"`
	MaxPrice     *float64 `json:"maxPrice,omitempty"`
	SelectedTags []string `json:"selectedTags,omitempty"`

	clientKey string
}

// MaxPrice drops matches priced above p (USD). p must be positive.
func MaxPrice(p float64) SearchOption {
	return func(s *searchParams) { s.MaxPrice = &p }
}

// PreferTags asks the model to favor experiences with these tags.
// Tags are a hint; they never filter results.
func PreferTags(tags ...string) SearchOption {
	return func(s *searchParams) { s.SelectedTags = append(s.SelectedTags, tags...) }
}

// ForClient sets the rate limit key, typically the caller's address.
func ForClient(key string) SearchOption {
	return func(s *searchParams) { s.clientKey = key }
}

// Search ranks the catalog against query.
// Errors match ErrRateLimited, ErrInvalidRequest or ErrInternal; an unusable
// model answer is an empty SearchResult, not an error.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) (res SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	p := searchParams{Query: query, clientKey: defaultClientKey}
	for _, o := range opts {
		o(&p)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return SearchResult{}, fmt.Errorf("scout: encode search: %w", err)
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	resp, err := c.searchSvc.Search(ctx, p.clientKey, body)
	if err != nil {
		return SearchResult{}, fmt.Errorf("scout: search: %w", err)
	}

	res = SearchResult{
		Matches: make([]Match, len(resp.Results)),
		Message: resp.Message,
		Outcome: Outcome(resp.Outcome),
		Tokens:  usage.TotalTokens(),
		Cached:  usage.Cached(),
	}
	for i, r := range resp.Results {
		res.Matches[i] = matchFromDomain(r)
	}
	return res, nil
}

// searchUseCase is the internal interface for the search pipeline.
type searchUseCase interface {
	Search(ctx context.Context, clientKey string, body []byte) (searchuc.Response, error)
}
