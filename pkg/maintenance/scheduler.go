package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"unblock-hq/corsair/pkg/cache"
	"unblock-hq/corsair/pkg/chat"
	"unblock-hq/corsair/pkg/limits/ratelimit"
	"unblock-hq/corsair/pkg/limits/storage"
)

// gcWindowMultiple is how many windows a limiter entry may sit idle
// before garbage collection removes it.
const gcWindowMultiple = 10

// limiterJob pairs a limiter with its persistence scope.
type limiterJob struct {
	scope   string
	limiter *ratelimit.Limiter
	backend storage.Backend
}

// Scheduler runs the background sweeps: rate-limit garbage collection
// and state checkpoints, idle chat session eviction, and expired cache
// entry eviction. Sweeps never block foreground per-key operations.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	limiters []limiterJob
	sessions *chat.SessionStore
	cache    *cache.ResponseCache

	sessionInterval time.Duration

	mu      sync.Mutex
	running bool
}

// NewScheduler creates an empty scheduler; register work with the Add
// methods before calling Start.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		logger: logger.With("component", "maintenance"),
	}
}

// AddLimiter registers a limiter for garbage collection at ten times its
// window and for state checkpoints every window, so abuse escalation
// survives restarts. backend may be nil to skip persistence.
func (s *Scheduler) AddLimiter(scope string, limiter *ratelimit.Limiter, backend storage.Backend) {
	s.limiters = append(s.limiters, limiterJob{scope: scope, limiter: limiter, backend: backend})
}

// AddSessionSweep registers idle chat session eviction. The interval is
// half the idle timeout, so a session is removed at most 1.5 timeouts
// after its last touch.
func (s *Scheduler) AddSessionSweep(sessions *chat.SessionStore, idleTimeout time.Duration) {
	s.sessions = sessions
	s.sessionInterval = idleTimeout / 2
	if s.sessionInterval < time.Second {
		s.sessionInterval = time.Second
	}
}

// AddCacheSweep registers expired cache entry eviction, run alongside
// the session sweep.
func (s *Scheduler) AddCacheSweep(responseCache *cache.ResponseCache) {
	s.cache = responseCache
}

// RestoreLimits seeds each limiter from its persisted state. Call once
// at startup, before the server starts taking requests.
func (s *Scheduler) RestoreLimits(ctx context.Context) error {
	for _, j := range s.limiters {
		if j.backend == nil {
			continue
		}
		states, err := j.backend.List(ctx, j.scope)
		if err != nil {
			return fmt.Errorf("restoring %s limiter state: %w", j.scope, err)
		}
		for _, state := range states {
			j.limiter.Restore(state)
		}
		if len(states) > 0 {
			s.logger.Info("limiter state restored",
				"scope", j.scope,
				"entries", len(states),
			)
		}
	}
	return nil
}

// Start schedules the registered jobs and starts the cron loop. The
// scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	for _, j := range s.limiters {
		job := j
		window := job.limiter.Config().Window

		gcSpec := fmt.Sprintf("@every %s", gcWindowMultiple*window)
		if _, err := s.cron.AddFunc(gcSpec, func() { s.collectLimiter(ctx, job) }); err != nil {
			return fmt.Errorf("scheduling %s limiter gc: %w", job.scope, err)
		}

		if job.backend != nil {
			cpSpec := fmt.Sprintf("@every %s", window)
			if _, err := s.cron.AddFunc(cpSpec, func() { s.checkpointLimiter(ctx, job) }); err != nil {
				return fmt.Errorf("scheduling %s limiter checkpoint: %w", job.scope, err)
			}
		}
	}

	if s.sessions != nil || s.cache != nil {
		interval := s.sessionInterval
		if interval == 0 {
			interval = time.Minute
		}
		spec := fmt.Sprintf("@every %s", interval)
		if _, err := s.cron.AddFunc(spec, func() { s.sweepSessionsAndCache() }); err != nil {
			return fmt.Errorf("scheduling session sweep: %w", err)
		}
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("maintenance scheduler started",
		"limiters", len(s.limiters),
		"session_sweep", s.sessions != nil,
		"cache_sweep", s.cache != nil,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("maintenance scheduler stopped")
}

// collectLimiter drops limiter entries idle for ten windows, both in
// memory and in the persistence backend.
func (s *Scheduler) collectLimiter(ctx context.Context, j limiterJob) {
	maxIdle := gcWindowMultiple * j.limiter.Config().Window
	removed := j.limiter.Sweep(maxIdle)

	if j.backend != nil {
		deleted, err := j.backend.Cleanup(ctx, time.Now().Add(-maxIdle))
		if err != nil {
			s.logger.Error("limiter storage cleanup failed",
				"scope", j.scope,
				"error", err,
			)
		} else if deleted > 0 {
			s.logger.Debug("limiter storage cleaned",
				"scope", j.scope,
				"deleted", deleted,
			)
		}
	}

	if len(removed) > 0 {
		s.logger.Debug("limiter entries collected",
			"scope", j.scope,
			"removed", len(removed),
		)
	}
}

// checkpointLimiter persists every tracked window state for a scope.
func (s *Scheduler) checkpointLimiter(ctx context.Context, j limiterJob) {
	states := j.limiter.States()
	for _, state := range states {
		if err := j.backend.Save(ctx, j.scope, state); err != nil {
			s.logger.Error("limiter checkpoint failed",
				"scope", j.scope,
				"key", state.Key,
				"error", err,
			)
			return
		}
	}
	if len(states) > 0 {
		s.logger.Debug("limiter state checkpointed",
			"scope", j.scope,
			"entries", len(states),
		)
	}
}

// sweepSessionsAndCache evicts idle chat sessions and expired cache
// entries.
func (s *Scheduler) sweepSessionsAndCache() {
	if s.sessions != nil {
		if n := s.sessions.Sweep(); n > 0 {
			s.logger.Info("idle chat sessions evicted", "count", n)
		}
	}
	if s.cache != nil {
		if n := s.cache.Sweep(); n > 0 {
			s.logger.Debug("expired cache entries evicted", "count", n)
		}
	}
}
