package health

import "context"

// StorePinger checks session store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// UpstreamChecker checks image search API availability.
type UpstreamChecker interface {
	HealthCheck(ctx context.Context) error
}
