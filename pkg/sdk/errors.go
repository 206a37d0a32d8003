package scout

import "github.com/kailas-cloud/scout/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound       = domain.ErrNotFound
	ErrInvalidRequest = domain.ErrInvalidRequest
	ErrRateLimited    = domain.ErrRateLimited
	ErrInternal       = domain.ErrInternal
)
