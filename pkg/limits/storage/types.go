package storage

import (
	"context"
	"time"

	"unblock-hq/corsair/pkg/limits/ratelimit"
)

// Backend defines the interface for rate-limit state persistence.
// Implementations must be thread-safe and support concurrent access.
//
// States are keyed by (scope, key): scope distinguishes the proxy and chat
// limiters, key is the caller identity inside that scope.
type Backend interface {
	// Save persists the window state for a key. Existing state is updated.
	Save(ctx context.Context, scope string, state ratelimit.State) error

	// Load retrieves the window state for a key.
	// The second return value is false if no state exists.
	Load(ctx context.Context, scope, key string) (ratelimit.State, bool, error)

	// List returns all persisted states for a scope.
	List(ctx context.Context, scope string) ([]ratelimit.State, error)

	// Delete removes the state for a key. No-op if absent.
	Delete(ctx context.Context, scope, key string) error

	// Cleanup removes entries whose window started before the cutoff and
	// returns the number deleted.
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases any resources held by the backend.
	Close() error
}
