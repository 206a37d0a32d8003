package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// GenerationChecker checks language model provider availability.
type GenerationChecker interface {
	HealthCheck(ctx context.Context) error
}

// CatalogSizer reports how many experiences are loaded.
type CatalogSizer interface {
	Len() int
}
