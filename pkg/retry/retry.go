package retry

import (
	"context"
	"log/slog"
	"time"
)

// Policy describes a bounded retry schedule with exponential backoff.
// The same policy parameterizes both the request forwarder and the
// completion provider caller, so retry behavior is defined in exactly one
// place.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first.
	// Zero means no retries.
	MaxRetries int

	// BaseDelay is the delay before the first retry. Each subsequent retry
	// doubles the delay (BaseDelay, 2*BaseDelay, 4*BaseDelay, ...).
	BaseDelay time.Duration

	// Retryable reports whether an error is worth retrying. A nil predicate
	// retries every error.
	Retryable func(error) bool
}

// DefaultPolicy returns the retry schedule used for outbound calls:
// two additional attempts with 1s then 2s backoff.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		Retryable:  retryable,
	}
}

// Do runs fn under the policy. It returns fn's first success, or the last
// error once the retry budget is exhausted, the error is classified as
// non-retryable, or the context is done.
//
// Backoff waits respect context cancellation: a cancelled context during a
// wait returns ctx.Err() immediately.
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := p.BaseDelay << (attempt - 1)
			slog.Debug("retrying operation",
				"op", op,
				"attempt", attempt,
				"max_retries", p.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return lastErr
		}

		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}

		slog.Warn("operation failed, will retry",
			"op", op,
			"attempt", attempt+1,
			"error", lastErr,
		)
	}

	return lastErr
}
