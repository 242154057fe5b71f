// Package retry provides a small reusable retry policy (max attempts,
// exponential backoff schedule, retryable-error predicate) shared by the
// request forwarder and the completion provider caller.
package retry
