package search

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/experience"
	"github.com/kailas-cloud/scout/internal/domain/search/request"
)

type experienceJSON struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location"`
	Price       float64  `json:"price"`
	Tags        []string `json:"tags"`
}

// BuildPrompt embeds the catalog as the only source of truth, the output
// contract, and the request's price and tag preferences as advisory hints.
func BuildPrompt(items []experience.Experience, req *request.Request) (domain.Prompt, error) {
	snapshot := make([]experienceJSON, 0, len(items))
	for _, e := range items {
		snapshot = append(snapshot, experienceJSON{
			ID:          e.ID(),
			Title:       e.Title(),
			Description: e.Description(),
			Location:    e.Location(),
			Price:       e.Price(),
			Tags:        e.Tags(),
		})
	}
	catalogJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return domain.Prompt{}, fmt.Errorf("marshal catalog: %w", err)
	}

	var hints strings.Builder
	if maxPrice, ok := req.MaxPrice(); ok {
		fmt.Fprintf(&hints, "\n- Only include experiences with price <= $%s.",
			strconv.FormatFloat(maxPrice, 'f', -1, 64))
	}
	if req.HasTagPreference() {
		fmt.Fprintf(&hints, "\n- Prefer experiences that have these tags: %s.",
			strings.Join(req.SelectedTags(), ", "))
	}

	system := `You are a travel recommendation assistant for Sri Lankan travel experiences.

AVAILABLE EXPERIENCES (this is your ONLY source of truth):
` + string(catalogJSON) + `

RULES:
- ONLY recommend experiences from the list above. Never invent new ones.
- Return a JSON array of matches, sorted by relevance (best match first).
- Each match must have: "id" (number from the list), "reason" (1-2 sentence explanation), "score" (1-10).
- If no experiences match the query, return an empty array: []
- Consider the title, location, tags, and price when matching.` + hints.String() + `

RESPONSE FORMAT (JSON only, no markdown, no explanation outside the array):
[
  { "id": 1, "reason": "Why this matches the query", "score": 8 }
]`

	return domain.Prompt{System: system, User: req.Query()}, nil
}
