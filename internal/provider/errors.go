package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Reason classifies why a fetch attempt against one provider failed
type Reason string

const (
	// ReasonRateLimited indicates the provider rejected the request due to
	// rate limiting (HTTP 429 or an API-level throttle response)
	ReasonRateLimited Reason = "rate_limited"
	// ReasonNotFound indicates the symbol or date range has no data
	ReasonNotFound Reason = "not_found"
	// ReasonMalformed indicates a response was received but could not be
	// parsed into the expected shape
	ReasonMalformed Reason = "malformed"
	// ReasonTimeout indicates the per-attempt deadline elapsed
	ReasonTimeout Reason = "timeout"
	// ReasonUnavailable indicates a connection-level failure (refused, DNS,
	// HTTP 5xx)
	ReasonUnavailable Reason = "unavailable"
	// ReasonCancelled indicates the caller's context was cancelled
	ReasonCancelled Reason = "cancelled"
)

// FetchError is a classified failure from a single provider attempt
type FetchError struct {
	Reason     Reason
	Retryable  bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Reason, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(statusCode int) *FetchError {
	return &FetchError{
		Reason:     ReasonRateLimited,
		Retryable:  false,
		StatusCode: statusCode,
		Message:    "rate limit exceeded",
	}
}

// NewNotFoundError creates an empty-dataset error
func NewNotFoundError(message string) *FetchError {
	return &FetchError{
		Reason:    ReasonNotFound,
		Retryable: true,
		Message:   message,
	}
}

// NewMalformedError creates a parse/schema-mismatch error
func NewMalformedError(message string, cause error) *FetchError {
	return &FetchError{
		Reason:    ReasonMalformed,
		Retryable: true,
		Message:   message,
		Cause:     cause,
	}
}

// NewTimeoutError creates a per-attempt timeout error
func NewTimeoutError(cause error) *FetchError {
	return &FetchError{
		Reason:    ReasonTimeout,
		Retryable: false,
		Message:   "request timed out",
		Cause:     cause,
	}
}

// NewUnavailableError creates a connection-level error
func NewUnavailableError(cause error) *FetchError {
	return &FetchError{
		Reason:    ReasonUnavailable,
		Retryable: true,
		Message:   "provider unavailable",
		Cause:     cause,
	}
}

// NewCancelledError creates a caller-cancellation error
func NewCancelledError(cause error) *FetchError {
	return &FetchError{
		Reason:    ReasonCancelled,
		Retryable: false,
		Message:   "request cancelled",
		Cause:     cause,
	}
}

// ClassifyHTTPStatus classifies a non-2xx HTTP status into a FetchError
func ClassifyHTTPStatus(statusCode int) *FetchError {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimitError(statusCode)
	case statusCode >= 500:
		return &FetchError{
			Reason:     ReasonUnavailable,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "server returned an error",
		}
	case statusCode == http.StatusNotFound:
		return &FetchError{
			Reason:     ReasonNotFound,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "no data for request",
		}
	default:
		return &FetchError{
			Reason:     ReasonUnavailable,
			Retryable:  false,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		}
	}
}

// Classify wraps an arbitrary error from a provider call into a FetchError.
// Context errors take precedence so cancellation is never misreported as a
// network failure.
func Classify(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	if errors.Is(err, context.Canceled) {
		return NewCancelledError(err)
	}
	return NewUnavailableError(err)
}
