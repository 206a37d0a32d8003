package search

import (
	"context"

	"github.com/kailas-cloud/scout/internal/domain/experience"
	"github.com/kailas-cloud/scout/internal/usecase/ratelimit"
)

// Catalog is the read-only experience store.
type Catalog interface {
	All() []experience.Experience
	ByID(id int) (experience.Experience, bool)
	Has(id int) bool
}

// Admitter gates searches per client key.
type Admitter interface {
	Admit(ctx context.Context, key string) ratelimit.Decision
}
