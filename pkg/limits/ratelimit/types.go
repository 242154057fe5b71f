package ratelimit

import "time"

// Config contains configuration for a keyed fixed-window rate limit.
type Config struct {
	// Window is the window length (e.g., one minute).
	Window time.Duration

	// MaxPerWindow is the number of requests allowed per window per key.
	MaxPerWindow int

	// EscalationThreshold is the number of consecutive saturated windows
	// after which callers get the harsher, less specific limit message.
	EscalationThreshold int
}

// State is the rate-limit state for a single caller identity after a
// check-and-increment. Callers read Limited, Count, and the reset timing;
// the limiter owns the authoritative copy.
type State struct {
	// Key is the caller identity (user id or IP).
	Key string

	// WindowStart is when the current window opened.
	WindowStart time.Time

	// Count is the number of requests observed in the current window.
	Count int

	// Limited reports whether this request exceeded the window quota.
	Limited bool

	// ConsecutiveWindows counts successive windows that closed while the
	// caller was saturating the limit. It resets to zero when a window
	// closes under the limit.
	ConsecutiveWindows int
}

// ResetTime returns when the current window rolls over.
func (s State) ResetTime(window time.Duration) time.Time {
	return s.WindowStart.Add(window)
}

// RetryAfter returns the seconds until the window resets, never less than 1.
func (s State) RetryAfter(window time.Duration, now time.Time) int {
	secs := int(s.ResetTime(window).Sub(now).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
