package experience

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Experience is a catalog record (immutable value object).
type Experience struct {
	id          int
	title       string
	description string
	location    string
	price       float64
	tags        []string
}

// New validates and creates an Experience.
// ID: positive. Title and location: non-empty. Price: positive and finite.
func New(id int, title, description, location string, price float64, tags []string) (Experience, error) {
	if id <= 0 {
		return Experience{}, fmt.Errorf("experience ID must be positive, got %d", id)
	}
	if strings.TrimSpace(title) == "" {
		return Experience{}, fmt.Errorf("experience %d: title is required", id)
	}
	if strings.TrimSpace(location) == "" {
		return Experience{}, fmt.Errorf("experience %d: location is required", id)
	}
	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return Experience{}, fmt.Errorf("experience %d: price must be a positive number", id)
	}
	for _, t := range tags {
		if t == "" {
			return Experience{}, fmt.Errorf("experience %d: empty tag", id)
		}
	}

	return Experience{
		id:          id,
		title:       title,
		description: description,
		location:    location,
		price:       price,
		tags:        slices.Clone(tags),
	}, nil
}

// ID returns the stable catalog identifier.
func (e Experience) ID() int { return e.id }

// Title returns the display title.
func (e Experience) Title() string { return e.title }

// Description returns the long-form description.
func (e Experience) Description() string { return e.description }

// Location returns the place name.
func (e Experience) Location() string { return e.location }

// Price returns the price per person.
func (e Experience) Price() float64 { return e.price }

// Tags returns a copy of the tags in display order.
func (e Experience) Tags() []string { return slices.Clone(e.tags) }

// HasTag reports whether the experience carries the tag (case-sensitive).
func (e Experience) HasTag(tag string) bool { return slices.Contains(e.tags, tag) }
