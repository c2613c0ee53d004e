package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestStatusError_Unwrap(t *testing.T) {
	err := fmt.Errorf("fetch page: %w", &StatusError{StatusCode: 500, Body: "boom"})
	if !errors.Is(err, ErrUpstream) {
		t.Fatal("expected errors.Is(err, ErrUpstream)")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatal("expected errors.As to find *StatusError")
	}
	if se.StatusCode != 500 {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
	if se.Error() != "upstream error: status 500: boom" {
		t.Errorf("unexpected message: %q", se.Error())
	}
}

func TestRateLimitError_MatchesBothSentinels(t *testing.T) {
	err := NewRateLimitError(4, 60*time.Second)
	if !errors.Is(err, ErrRateLimited) {
		t.Error("expected ErrRateLimited")
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Error("expected ErrRetriesExhausted")
	}
	if errors.Is(err, ErrUpstream) {
		t.Error("rate limit error must not match ErrUpstream")
	}
	var rle *RateLimitError
	if !errors.As(err, &rle) || rle.Attempts != 4 {
		t.Errorf("unexpected RateLimitError: %+v", rle)
	}
}
