package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation signals invalid user input (empty search term, bad page).
	ErrValidation = errors.New("validation failed")
	// ErrRateLimited signals an upstream rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrRetriesExhausted signals that the retry budget for a request ran out.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrUpstream signals an unexpected upstream response.
	ErrUpstream = errors.New("upstream error")
	// ErrNetwork signals a transport level failure.
	ErrNetwork = errors.New("network error")
	// ErrNoMoreResults signals a load-more request without remaining results.
	ErrNoMoreResults = errors.New("no more results")
	// ErrBusy signals that a fetch is already in flight.
	ErrBusy = errors.New("request in progress")
	// ErrStaleRequest signals a result that belongs to a superseded request.
	ErrStaleRequest = errors.New("stale request")
	// ErrSessionNotFound signals a missing persisted session.
	ErrSessionNotFound = errors.New("session not found")
)

// StatusError wraps ErrUpstream with the HTTP status returned by the upstream.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", ErrUpstream.Error(), e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrUpstream.Error(), e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

// RateLimitError is returned once every attempt of a request was rate limited.
// It matches both ErrRateLimited and ErrRetriesExhausted.
type RateLimitError struct {
	Attempts  int
	LastReset time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: %s after %d attempts (reset in %s)",
		ErrRateLimited.Error(), ErrRetriesExhausted.Error(), e.Attempts, e.LastReset)
}

func (e *RateLimitError) Unwrap() []error { return []error{ErrRateLimited, ErrRetriesExhausted} }

// NewRateLimitError creates a rate limit error after the given number of attempts.
func NewRateLimitError(attempts int, lastReset time.Duration) error {
	return &RateLimitError{Attempts: attempts, LastReset: lastReset}
}
