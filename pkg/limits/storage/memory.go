package storage

import (
	"context"
	"sync"
	"time"

	"unblock-hq/corsair/pkg/limits/ratelimit"
)

// MemoryBackend implements Backend using in-memory storage. This is the
// default backend: fast, no persistence, all state lost on restart.
//
// MemoryBackend is thread-safe using sync.RWMutex.
type MemoryBackend struct {
	states map[string]ratelimit.State
	mu     sync.RWMutex
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		states: make(map[string]ratelimit.State),
	}
}

func compositeKey(scope, key string) string {
	return scope + ":" + key
}

// Save persists the window state for a key.
func (m *MemoryBackend) Save(_ context.Context, scope string, state ratelimit.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[compositeKey(scope, state.Key)] = state
	return nil
}

// Load retrieves the window state for a key.
func (m *MemoryBackend) Load(_ context.Context, scope, key string) (ratelimit.State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[compositeKey(scope, key)]
	return s, ok, nil
}

// List returns all persisted states for a scope.
func (m *MemoryBackend) List(_ context.Context, scope string) ([]ratelimit.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := scope + ":"
	var out []ratelimit.State
	for k, s := range m.states {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, s)
		}
	}
	return out, nil
}

// Delete removes the state for a key.
func (m *MemoryBackend) Delete(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, compositeKey(scope, key))
	return nil
}

// Cleanup removes entries whose window started before the cutoff.
func (m *MemoryBackend) Cleanup(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for k, s := range m.states {
		if s.WindowStart.Before(olderThan) {
			delete(m.states, k)
			deleted++
		}
	}
	return deleted, nil
}

// Close releases resources. No-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}
