// Package catalog loads the fixed set of bookable experiences.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/experience"
)

//go:embed default.yaml
var defaultCatalog []byte

type experienceDTO struct {
	ID          int      `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Location    string   `yaml:"location"`
	Price       float64  `yaml:"price"`
	Tags        []string `yaml:"tags"`
}

type catalogDTO struct {
	Experiences []experienceDTO `yaml:"experiences"`
}

// Catalog is an immutable, ordered set of experiences indexed by id.
// Safe for concurrent reads.
type Catalog struct {
	items []experience.Experience
	byID  map[int]int
	tags  []string
}

// Load reads the catalog from path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// Parse decodes a YAML catalog. Ids must be unique and the catalog non-empty.
func Parse(data []byte) (*Catalog, error) {
	var dto catalogDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(dto.Experiences) == 0 {
		return nil, fmt.Errorf("catalog has no experiences")
	}

	items := make([]experience.Experience, 0, len(dto.Experiences))
	for _, d := range dto.Experiences {
		exp, err := experience.New(d.ID, d.Title, d.Description, d.Location, d.Price, d.Tags)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", d.ID, err)
		}
		items = append(items, exp)
	}
	return New(items)
}

// New builds a catalog from already validated experiences.
func New(items []experience.Experience) (*Catalog, error) {
	c := &Catalog{
		items: make([]experience.Experience, 0, len(items)),
		byID:  make(map[int]int, len(items)),
	}
	seenTag := make(map[string]struct{})
	for _, exp := range items {
		if _, dup := c.byID[exp.ID()]; dup {
			return nil, fmt.Errorf("duplicate experience id %d", exp.ID())
		}
		c.byID[exp.ID()] = len(c.items)
		c.items = append(c.items, exp)
		for _, tag := range exp.Tags() {
			if _, ok := seenTag[tag]; ok {
				continue
			}
			seenTag[tag] = struct{}{}
			c.tags = append(c.tags, tag)
		}
	}
	return c, nil
}

// All returns the experiences in catalog order.
func (c *Catalog) All() []experience.Experience {
	out := make([]experience.Experience, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of experiences.
func (c *Catalog) Len() int { return len(c.items) }

// Has reports whether id names a catalog experience.
func (c *Catalog) Has(id int) bool {
	_, ok := c.byID[id]
	return ok
}

// ByID looks up an experience.
func (c *Catalog) ByID(id int) (experience.Experience, bool) {
	i, ok := c.byID[id]
	if !ok {
		return experience.Experience{}, false
	}
	return c.items[i], true
}

// Get looks up an experience, returning domain.ErrNotFound when absent.
func (c *Catalog) Get(id int) (experience.Experience, error) {
	exp, ok := c.ByID(id)
	if !ok {
		return experience.Experience{}, fmt.Errorf("experience %d: %w", id, domain.ErrNotFound)
	}
	return exp, nil
}

// Tags returns every distinct tag in first-seen order.
func (c *Catalog) Tags() []string {
	out := make([]string, len(c.tags))
	copy(out, c.tags)
	return out
}
