package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrMalformedResponse means the model answered but the output could not be decoded.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrEmptyResponse means the model returned no usable content.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrTruncated means the model stopped at its output token limit.
	ErrTruncated = errors.New("model output truncated")
	// ErrUnsupportedAttachment means the provider cannot accept the attachment type.
	ErrUnsupportedAttachment = errors.New("unsupported attachment type")
)

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// StatusError is a non-2xx, non-429 response from a provider API.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// ErrorFromResponse converts a failed HTTP exchange into a RateLimitError or StatusError.
func ErrorFromResponse(provider string, resp *http.Response, body []byte) error {
	baseErr := &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: Truncate(string(body), 500)}
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return NewRateLimitError(provider, baseErr, retryAfter)
	}
	return baseErr
}

// IsTransient reports whether err is worth retrying: timeouts, rate limits,
// server-side failures and unusable model output. Authentication, bad requests
// and unsupported input are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}

	var stErr *StatusError
	if errors.As(err, &stErr) {
		switch {
		case stErr.StatusCode == http.StatusRequestTimeout:
			return true
		case stErr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}

	if errors.Is(err, ErrUnsupportedAttachment) {
		return false
	}
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrTruncated) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// Truncate shortens s to maxLen bytes for logs and error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
