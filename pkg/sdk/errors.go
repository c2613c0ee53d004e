package pixsearch

import "github.com/kailas-cloud/pixsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation       = domain.ErrValidation
	ErrRateLimited      = domain.ErrRateLimited
	ErrRetriesExhausted = domain.ErrRetriesExhausted
	ErrUpstream         = domain.ErrUpstream
	ErrNetwork          = domain.ErrNetwork
	ErrNoMoreResults    = domain.ErrNoMoreResults
	ErrBusy             = domain.ErrBusy
	ErrStaleRequest     = domain.ErrStaleRequest
)
