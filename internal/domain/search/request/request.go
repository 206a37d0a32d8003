package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/scout/internal/domain"
)

// Query length limits, counted in characters after trimming.
const (
	MinQueryLength = 2
	MaxQueryLength = 500
)

// Validation messages surfaced verbatim to the caller.
const (
	MsgInvalidBody    = "Invalid request body"
	MsgQueryNotString = "Search query must be a string"
	MsgQueryTooShort  = "Search query must be at least 2 characters"
	MsgQueryTooLong   = "Search query is too long"
	MsgMaxPrice       = "maxPrice must be a positive number"
	MsgSelectedTags   = "selectedTags must be an array of strings"
)

// ValidationError reports the first violated request rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap lets callers match the error with domain.ErrInvalidRequest.
func (e *ValidationError) Unwrap() error { return domain.ErrInvalidRequest }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Request is a validated search query.
type Request struct {
	query        string
	maxPrice     float64
	hasMaxPrice  bool
	selectedTags []string
}

// New validates and normalizes search parameters.
// Rules are applied in order and the first failure wins:
// query trimmed length in [2, 500], maxPrice positive if set.
// Duplicate tags are collapsed; an empty tag list means no tag preference.
func New(query string, maxPrice *float64, selectedTags []string) (Request, error) {
	query, err := checkQuery(query)
	if err != nil {
		return Request{}, err
	}

	r := Request{query: query}

	if maxPrice != nil {
		if err := checkMaxPrice(*maxPrice); err != nil {
			return Request{}, err
		}
		r.maxPrice = *maxPrice
		r.hasMaxPrice = true
	}

	for _, t := range selectedTags {
		if !slices.Contains(r.selectedTags, t) {
			r.selectedTags = append(r.selectedTags, t)
		}
	}

	return r, nil
}

// Decode parses a raw JSON body, checks field types and validates the result.
// Unknown fields are ignored. JSON null is treated as an absent optional field.
func Decode(body []byte) (Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return Request{}, invalid("", MsgInvalidBody)
	}

	rawQuery, ok := fields["query"]
	if !ok || isNull(rawQuery) {
		return Request{}, invalid("query", MsgQueryNotString)
	}
	var query string
	if err := json.Unmarshal(rawQuery, &query); err != nil {
		return Request{}, invalid("query", MsgQueryNotString)
	}
	if _, err := checkQuery(query); err != nil {
		return Request{}, err
	}

	var maxPrice *float64
	if raw, ok := fields["maxPrice"]; ok && !isNull(raw) {
		var p float64
		if err := json.Unmarshal(raw, &p); err != nil {
			return Request{}, invalid("maxPrice", MsgMaxPrice)
		}
		if err := checkMaxPrice(p); err != nil {
			return Request{}, err
		}
		maxPrice = &p
	}

	var tags []string
	if raw, ok := fields["selectedTags"]; ok && !isNull(raw) {
		var err error
		if tags, err = decodeStrings(raw); err != nil {
			return Request{}, invalid("selectedTags", MsgSelectedTags)
		}
	}

	return New(query, maxPrice, tags)
}

func checkQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	n := utf8.RuneCountInString(query)
	if n < MinQueryLength {
		return "", invalid("query", MsgQueryTooShort)
	}
	if n > MaxQueryLength {
		return "", invalid("query", MsgQueryTooLong)
	}
	return query, nil
}

func checkMaxPrice(p float64) error {
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return invalid("maxPrice", MsgMaxPrice)
	}
	return nil
}

// decodeStrings accepts only a JSON array whose every element is a string.
func decodeStrings(raw json.RawMessage) ([]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("not an array: %w", err)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		if isNull(item) {
			return nil, fmt.Errorf("element %d is null", i)
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Query returns the trimmed search text.
func (r *Request) Query() string { return r.query }

// MaxPrice returns the price ceiling and whether one was given.
func (r *Request) MaxPrice() (float64, bool) { return r.maxPrice, r.hasMaxPrice }

// SelectedTags returns the preferred tags (nil when no preference).
func (r *Request) SelectedTags() []string { return slices.Clone(r.selectedTags) }

// HasTagPreference reports whether any tags were selected.
func (r *Request) HasTagPreference() bool { return len(r.selectedTags) > 0 }
