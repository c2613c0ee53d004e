package chi

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/kailas-cloud/pixsearch/internal/domain"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes returned by the JSON API.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeNoMoreResults    ErrorCode = "no_more_results"
	CodeBusy             ErrorCode = "busy"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeUpstreamError    ErrorCode = "upstream_error"
	CodeInternalError    ErrorCode = "internal_error"
)

// defaultRetryAfter is advertised when a rate limit error carries no reset hint.
const defaultRetryAfter = 60 * time.Second

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrNoMoreResults, http.StatusConflict, CodeNoMoreResults),
		sentinelHandler(domain.ErrBusy, http.StatusConflict, CodeBusy),
		sentinelHandler(domain.ErrStaleRequest, http.StatusConflict, CodeBusy),
		rateLimitHandler,
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, CodeUpstreamError),
		sentinelHandler(domain.ErrNetwork, http.StatusBadGateway, CodeUpstreamError),
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNoMoreResults,
		domain.ErrBusy,
		domain.ErrStaleRequest,
		domain.ErrRateLimited,
		domain.ErrUpstream,
		domain.ErrNetwork,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// rateLimitHandler handles ErrRateLimited and advertises when to retry.
func rateLimitHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRateLimited) {
		return false
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(err)))
	writeError(w, http.StatusTooManyRequests, CodeRateLimited, msg)
	return true
}

func retryAfterSeconds(err error) int {
	wait := defaultRetryAfter
	var rle *domain.RateLimitError
	if errors.As(err, &rle) && rle.LastReset > 0 {
		wait = rle.LastReset
	}
	return max(1, int(math.Ceil(wait.Seconds())))
}
