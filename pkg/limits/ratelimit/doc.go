// Package ratelimit implements the keyed fixed-window rate limiting used by
// both the proxy endpoints and the chat gateway.
//
// State per key is {windowStart, count, limited, consecutiveWindows}. The
// check-and-increment is atomic per key; sweeping stale entries never blocks
// checks for unrelated keys longer than the shared mutex hold.
//
// ConsecutiveWindows tracks abuse escalation: callers who are still at or
// over quota when their window rolls over accumulate saturated windows, and
// handlers switch to a harsher, less specific 429 message past a configured
// threshold without revealing exact retry timing.
package ratelimit
