// Package match defines the contract that ranked generator output must meet
// before it is joined to catalog records.
package match

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Score bounds, inclusive.
const (
	MinScore = 1
	MaxScore = 10
)

// Contract violations. Each rejected element maps to exactly one of these.
var (
	ErrNotObject       = errors.New("match is not an object")
	ErrInvalidID       = errors.New("match id is not an integer")
	ErrUnknownID       = errors.New("match id does not exist in catalog")
	ErrInvalidReason   = errors.New("match reason must be a non-empty string")
	ErrInvalidScore    = errors.New("match score is not a number")
	ErrScoreOutOfRange = errors.New("match score out of range")
)

// IDIndex answers catalog membership questions.
type IDIndex interface {
	Has(id int) bool
}

// Validated is a generator match that passed the contract.
type Validated struct {
	id     int
	reason string
	score  float64
}

// NewValidated builds a Validated match from already-checked values (tests, cache hydration).
func NewValidated(id int, reason string, score float64) Validated {
	return Validated{id: id, reason: reason, score: score}
}

// ID returns the catalog identifier.
func (v Validated) ID() int { return v.id }

// Reason returns the generator's justification.
func (v Validated) Reason() string { return v.reason }

// Score returns the relevance score in [1, 10].
func (v Validated) Score() float64 { return v.score }

type rawMatch struct {
	ID     json.RawMessage `json:"id"`
	Reason json.RawMessage `json:"reason"`
	Score  json.RawMessage `json:"score"`
}

// Validate checks a single untrusted element against the match contract.
func Validate(raw json.RawMessage, ids IDIndex) (Validated, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Validated{}, ErrNotObject
	}
	var m rawMatch
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return Validated{}, fmt.Errorf("%w: %w", ErrNotObject, err)
	}

	id, err := parseID(m.ID)
	if err != nil {
		return Validated{}, err
	}
	if !ids.Has(id) {
		return Validated{}, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}

	var reason string
	if isNullOrEmpty(m.Reason) || json.Unmarshal(m.Reason, &reason) != nil || reason == "" {
		return Validated{}, ErrInvalidReason
	}

	var score float64
	if isNullOrEmpty(m.Score) || json.Unmarshal(m.Score, &score) != nil {
		return Validated{}, ErrInvalidScore
	}
	if score < MinScore || score > MaxScore {
		return Validated{}, fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}

	return Validated{id: id, reason: reason, score: score}, nil
}

// parseID accepts JSON numbers with an integral value (4 and 4.0, not "4" or 4.5).
func parseID(raw json.RawMessage) (int, error) {
	if isNullOrEmpty(raw) {
		return 0, ErrInvalidID
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, ErrInvalidID
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidID, f)
	}
	return int(f), nil
}

func isNullOrEmpty(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
