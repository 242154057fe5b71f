package providers

import (
	"fmt"
	"time"
)

// ProviderError represents a general provider error.
// It includes the HTTP status code and the provider's error message.
type ProviderError struct {
	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message from the provider
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// RateLimitError represents a rate limit or quota exceeded error (HTTP 429).
type RateLimitError struct {
	// RetryAfter is the duration to wait before retrying (if provided)
	RetryAfter time.Duration

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider rate limit exceeded (retry after %s): %s", e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider rate limit exceeded: %s", e.Message)
}

// TimeoutError represents a provider call that exceeded its deadline.
type TimeoutError struct {
	// Timeout is the configured deadline
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider request timeout after %s", e.Timeout)
}

// UnavailableError represents a network-level failure reaching the
// provider: connection refused, DNS failure, or a 5xx after retries.
type UnavailableError struct {
	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider unavailable: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// ContentFilteredError represents a completion blocked by the provider's
// safety systems.
type ContentFilteredError struct {
	// Reason is the provider's block or finish reason
	Reason string
}

// Error implements the error interface.
func (e *ContentFilteredError) Error() string {
	return fmt.Sprintf("content filtered by provider safety settings: %s", e.Reason)
}

// ModelNotFoundError represents an unknown or unavailable model.
type ModelNotFoundError struct {
	// Model is the requested model identifier
	Model string
}

// Error implements the error interface.
func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %q is not available", e.Model)
}

// ParseError represents a malformed provider response.
type ParseError struct {
	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider response parse error: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether a provider error is a network-class failure
// worth retrying.
func IsTransient(err error) bool {
	switch err.(type) {
	case *TimeoutError, *UnavailableError:
		return true
	}
	return false
}
