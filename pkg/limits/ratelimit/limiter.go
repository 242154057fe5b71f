package ratelimit

import (
	"sync"
	"time"
)

// Limiter implements a keyed fixed-window request counter.
//
// Each caller identity owns one window at a time. A request arriving after
// the window has elapsed (strict '>' comparison, so a request exactly at the
// boundary belongs to the new window) rolls the window over: the count
// resets to 1, and ConsecutiveWindows increments if the closing window was
// saturated, or resets to zero otherwise.
//
// # Thread Safety
//
// Check is an atomic read-modify-write per key: concurrent checks for the
// same key are applied in invocation order with no lost updates. The
// limiter performs no I/O and never blocks beyond the mutex.
type Limiter struct {
	config Config
	states map[string]*State
	mu     sync.Mutex

	// now is injectable for tests.
	now func() time.Time
}

// NewLimiter creates a new fixed-window limiter with the given configuration.
func NewLimiter(config Config) *Limiter {
	return &Limiter{
		config: config,
		states: make(map[string]*State),
		now:    time.Now,
	}
}

// Config returns the limiter's configuration.
func (l *Limiter) Config() Config {
	return l.config
}

// Check performs the check-and-increment for a key and returns the
// post-update state. The first request for an unseen key always succeeds
// and initializes the window.
func (l *Limiter) Check(key string) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	s, ok := l.states[key]
	if !ok {
		s = &State{
			Key:         key,
			WindowStart: now,
			Count:       1,
		}
		l.states[key] = s
		return *s
	}

	if now.Sub(s.WindowStart) > l.config.Window {
		// Window rolled over. A caller still saturating the limit at
		// roll-over accumulates a consecutive saturated window.
		if s.Count >= l.config.MaxPerWindow {
			s.ConsecutiveWindows++
		} else {
			s.ConsecutiveWindows = 0
		}
		s.WindowStart = now
		s.Count = 1
		s.Limited = false
		return *s
	}

	if s.Count >= l.config.MaxPerWindow {
		s.Limited = true
		return *s
	}

	s.Count++
	s.Limited = false
	return *s
}

// Restore seeds the limiter with a previously persisted state. Existing
// in-memory state for the same key is kept; restore is only meaningful
// before the limiter starts serving checks.
func (l *Limiter) Restore(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.states[s.Key]; !ok {
		copied := s
		l.states[s.Key] = &copied
	}
}

// Sweep removes entries whose window started more than maxIdle ago and
// returns the keys removed. The proxy runs this periodically so one-off
// callers do not accumulate forever.
func (l *Limiter) Sweep(maxIdle time.Duration) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var removed []string
	for key, s := range l.states {
		if now.Sub(s.WindowStart) > maxIdle {
			delete(l.states, key)
			removed = append(removed, key)
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.states)
}

// States returns a copy of every tracked state, used by the periodic
// checkpoint that persists window state across restarts.
func (l *Limiter) States() []State {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]State, 0, len(l.states))
	for _, s := range l.states {
		out = append(out, *s)
	}
	return out
}

// Snapshot returns a copy of the state for a key, if tracked.
func (l *Limiter) Snapshot(key string) (State, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.states[key]
	if !ok {
		return State{}, false
	}
	return *s, true
}
