package scout

import (
	"fmt"

	"github.com/kailas-cloud/scout/internal/domain/experience"
)

// catalogReader is the internal interface for catalog lookups.
type catalogReader interface {
	All() []experience.Experience
	Get(id int) (experience.Experience, error)
	Tags() []string
}

// Experiences lists the catalog in its defined order.
func (c *Client) Experiences() []Experience {
	items := c.catalog.All()
	out := make([]Experience, len(items))
	for i, e := range items {
		out[i] = experienceFromDomain(e)
	}
	return out
}

// Experience returns one catalog entry. The error matches ErrNotFound for unknown ids.
func (c *Client) Experience(id int) (Experience, error) {
	e, err := c.catalog.Get(id)
	if err != nil {
		return Experience{}, fmt.Errorf("scout: experience %d: %w", id, err)
	}
	return experienceFromDomain(e), nil
}

// Tags lists every catalog tag in first-seen order.
func (c *Client) Tags() []string {
	return c.catalog.Tags()
}
