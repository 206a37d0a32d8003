package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/scout/internal/domain"
)

func TestDefault(t *testing.T) {
	c := Default()

	if c.Len() != 5 {
		t.Fatalf("expected 5 experiences, got %d", c.Len())
	}

	exp, ok := c.ByID(4)
	if !ok {
		t.Fatal("expected experience 4")
	}
	if exp.Title() != "Surf & Chill Retreat" || exp.Location() != "Arugam Bay" || exp.Price() != 80 {
		t.Errorf("unexpected experience 4: %s / %s / %v", exp.Title(), exp.Location(), exp.Price())
	}
	if exp.Description() == "" {
		t.Error("expected a description")
	}

	all := c.All()
	for i, e := range all {
		if e.ID() != i+1 {
			t.Errorf("catalog order broken at %d: id %d", i, e.ID())
		}
	}
}

func TestTags_FirstSeenOrderDeduped(t *testing.T) {
	want := []string{
		"cold", "nature", "hiking",
		"history", "culture", "walking",
		"animals", "adventure", "photography",
		"beach", "surfing", "young-vibe",
		"climbing", "view",
	}
	got := Default().Tags()
	if len(got) != len(want) {
		t.Fatalf("expected %d tags, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tag[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHasAndGet(t *testing.T) {
	c := Default()

	if !c.Has(1) || c.Has(0) || c.Has(6) {
		t.Error("unexpected Has results")
	}
	if _, err := c.Get(3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := c.Get(99); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0] = all[1]

	if exp, _ := c.ByID(1); exp.Title() != "High-Altitude Tea Trails" {
		t.Error("mutating All() result changed the catalog")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "experiences: []"},
		{"bad yaml", "experiences: ["},
		{"duplicate id", `
experiences:
  - {id: 1, title: A, location: X, price: 1, tags: [a]}
  - {id: 1, title: B, location: Y, price: 2, tags: [b]}
`},
		{"invalid price", `
experiences:
  - {id: 1, title: A, location: X, price: -5, tags: [a]}
`},
		{"empty tag", `
experiences:
  - {id: 1, title: A, location: X, price: 5, tags: [""]}
`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte(`
experiences:
  - {id: 7, title: Kandy Temple Evening, location: Kandy, price: 30, tags: [culture]}
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 1 || !c.Has(7) {
		t.Fatalf("unexpected catalog: len=%d", c.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 5 {
		t.Fatalf("expected default catalog, got %d", c.Len())
	}
}
