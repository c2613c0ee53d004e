package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentSessionStore = "session_store"
	ComponentUpstream     = "pixabay"
)

// DefaultUpstreamInterval is how long an upstream probe result is reused.
const DefaultUpstreamInterval = 5 * time.Minute

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
//
// Every upstream probe spends a request from the API quota, so the upstream
// result is reused for upstreamInterval.
type Service struct {
	store            StorePinger
	upstream         UpstreamChecker
	upstreamInterval time.Duration
	now              func() time.Time

	lastProbe  time.Time
	lastResult CheckResult
}

// New creates a Service. upstream can be nil.
func New(store StorePinger, upstream UpstreamChecker) *Service {
	return &Service{
		store:            store,
		upstream:         upstream,
		upstreamInterval: DefaultUpstreamInterval,
		now:              time.Now,
	}
}

// WithUpstreamInterval overrides how long an upstream probe result is reused.
func (s *Service) WithUpstreamInterval(d time.Duration) *Service {
	s.upstreamInterval = d
	return s
}

// Check runs health checks against all components.
// Not safe for concurrent use; the HTTP handler serializes calls.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.store.Ping(ctx); err != nil {
		checks[ComponentSessionStore] = CheckError
	} else {
		checks[ComponentSessionStore] = CheckOK
	}

	if s.upstream != nil {
		checks[ComponentUpstream] = s.checkUpstream(ctx)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) checkUpstream(ctx context.Context) CheckResult {
	now := s.now()
	if !s.lastProbe.IsZero() && now.Sub(s.lastProbe) < s.upstreamInterval {
		return s.lastResult
	}

	result := CheckOK
	if err := s.upstream.HealthCheck(ctx); err != nil {
		result = CheckError
	}
	s.lastProbe = now
	s.lastResult = result
	return result
}
