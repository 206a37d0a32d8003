package scout

import (
	"github.com/kailas-cloud/scout/internal/domain/experience"
	"github.com/kailas-cloud/scout/internal/domain/search/match"
)

// Experience is a bookable travel experience from the catalog.
type Experience struct {
	ID          int
	Title       string
	Description string
	Location    string
	Price       float64 // USD
	Tags        []string
}

// Match is a catalog experience the model recommended for a query.
type Match struct {
	Experience Experience
	Reason     string
	Score      float64 // 1..10
}

// Outcome tags how the model's answer crossed the validation boundary.
type Outcome string

// Outcome constants.
const (
	OutcomeComplete Outcome = "complete"
	OutcomePartial  Outcome = "partial"
	OutcomeEmpty    Outcome = "empty"
)

// SearchResult is the answer to one query.
type SearchResult struct {
	Matches []Match
	Message string // set only when Matches is empty
	Outcome Outcome
	Tokens  int
	Cached  bool
}

func experienceFromDomain(e experience.Experience) Experience {
	return Experience{
		ID:          e.ID(),
		Title:       e.Title(),
		Description: e.Description(),
		Location:    e.Location(),
		Price:       e.Price(),
		Tags:        e.Tags(),
	}
}

func experienceToDomain(e Experience) (experience.Experience, error) {
	return experience.New(e.ID, e.Title, e.Description, e.Location, e.Price, e.Tags)
}

func matchFromDomain(r match.Result) Match {
	return Match{
		Experience: experienceFromDomain(r.Experience()),
		Reason:     r.Reason(),
		Score:      r.Score(),
	}
}
