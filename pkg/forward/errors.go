package forward

import (
	"fmt"
	"time"
)

// TimeoutError represents an outbound request that exceeded its deadline.
type TimeoutError struct {
	// Target is the URL the request was forwarded to
	Target string

	// Timeout is the deadline that was exceeded
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("forward to %q timed out after %s", e.Target, e.Timeout)
}

// UnavailableError represents a network-level failure reaching the target:
// connection refused or reset, DNS failure, or the like. These are retried
// before being surfaced.
type UnavailableError struct {
	// Target is the URL the request was forwarded to
	Target string

	// Cause is the underlying transport error
	Cause error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("target %q unavailable: %v", e.Target, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// RequestError represents a request that could not be constructed or sent
// for reasons that are the caller's fault (malformed URL, bad method).
// These are never retried.
type RequestError struct {
	// Target is the URL the request was meant for
	Target string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("bad forward request for %q: %v", e.Target, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// BlockedHostError represents a target whose host is on the blocklist.
type BlockedHostError struct {
	// Host is the blocked hostname
	Host string
}

// Error implements the error interface.
func (e *BlockedHostError) Error() string {
	return fmt.Sprintf("host %q is blocked", e.Host)
}

// IsTransient reports whether an error is a network-class failure worth
// retrying: timeouts and unreachable targets qualify, caller mistakes and
// blocked hosts do not.
func IsTransient(err error) bool {
	switch err.(type) {
	case *TimeoutError, *UnavailableError:
		return true
	}
	return false
}
