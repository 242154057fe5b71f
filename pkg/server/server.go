// Package server assembles and runs the corsair HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"unblock-hq/corsair/pkg/auth"
	"unblock-hq/corsair/pkg/blocklist"
	"unblock-hq/corsair/pkg/cache"
	"unblock-hq/corsair/pkg/chat"
	"unblock-hq/corsair/pkg/config"
	"unblock-hq/corsair/pkg/forward"
	"unblock-hq/corsair/pkg/limits/ratelimit"
	"unblock-hq/corsair/pkg/limits/storage"
	"unblock-hq/corsair/pkg/maintenance"
	"unblock-hq/corsair/pkg/providers"
	"unblock-hq/corsair/pkg/proxy/handlers"
	"unblock-hq/corsair/pkg/proxy/middleware"
	"unblock-hq/corsair/pkg/telemetry/metrics"
)

// Server owns every component of the proxy: the forwarder, blocklist,
// cache, rate limiters with their storage backend, the chat gateway,
// and the maintenance scheduler, wired behind one HTTP listener.
type Server struct {
	config *config.Config
	logger *slog.Logger

	httpServer *http.Server

	blocklist     *blocklist.Blocklist
	forwarder     *forward.Forwarder
	responseCache *cache.ResponseCache
	proxyLimiter  *ratelimit.Limiter
	chatLimiter   *ratelimit.Limiter
	backend       storage.Backend
	provider      providers.CompletionProvider
	gateway       *chat.Gateway
	resolver      auth.Resolver
	tokenChecker  *auth.ServiceTokenChecker
	collector     *metrics.Collector
	scheduler     *maintenance.Scheduler

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New builds a server and all its components from cfg. The caller is
// expected to have applied defaults and validated the config.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	blk, err := blocklist.New(cfg.Blocklist.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("loading blocklist: %w", err)
	}

	var backend storage.Backend
	switch cfg.Limits.Storage {
	case "sqlite":
		backend, err = storage.NewSQLiteBackend(cfg.Limits.SQLitePath)
		if err != nil {
			blk.Close()
			return nil, fmt.Errorf("opening limits database: %w", err)
		}
	default:
		backend = storage.NewMemoryBackend()
	}

	provider, err := providers.NewGeminiProvider(cfg.Chat.Provider)
	if err != nil {
		blk.Close()
		backend.Close()
		return nil, fmt.Errorf("configuring completion provider: %w", err)
	}

	proxyLimiter := ratelimit.NewLimiter(ratelimit.Config{
		Window:              cfg.Limits.Proxy.Window,
		MaxPerWindow:        cfg.Limits.Proxy.MaxPerWindow,
		EscalationThreshold: cfg.Limits.Proxy.EscalationThreshold,
	})
	chatLimiter := ratelimit.NewLimiter(ratelimit.Config{
		Window:              cfg.Limits.Chat.Window,
		MaxPerWindow:        cfg.Limits.Chat.MaxPerWindow,
		EscalationThreshold: cfg.Limits.Chat.EscalationThreshold,
	})

	sessions := chat.NewSessionStore(cfg.Chat.HistoryLimit, cfg.Chat.SessionIdleTimeout)
	gateway := chat.NewGateway(chatLimiter, sessions, provider, logger)

	responseCache := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries, cfg.Cache.MaxBodyBytes)
	collector := metrics.NewCollector(cfg.Telemetry.Metrics)

	scheduler := maintenance.NewScheduler(logger)
	scheduler.AddLimiter("proxy", proxyLimiter, backend)
	scheduler.AddLimiter("chat", chatLimiter, backend)
	scheduler.AddSessionSweep(sessions, cfg.Chat.SessionIdleTimeout)
	scheduler.AddCacheSweep(responseCache)

	return &Server{
		config:        cfg,
		logger:        logger,
		blocklist:     blk,
		forwarder:     forward.New(cfg.Forward, blk),
		responseCache: responseCache,
		proxyLimiter:  proxyLimiter,
		chatLimiter:   chatLimiter,
		backend:       backend,
		provider:      provider,
		gateway:       gateway,
		resolver:      auth.NewUserStoreResolver(cfg.Auth, logger),
		tokenChecker:  auth.NewServiceTokenChecker(cfg.Auth.ServiceToken),
		collector:     collector,
		scheduler:     scheduler,
	}, nil
}

// Start restores persisted limiter state, starts the maintenance
// scheduler and the HTTP listener, and blocks until ctx is cancelled, a
// shutdown signal arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	if err := s.scheduler.RestoreLimits(ctx); err != nil {
		return err
	}
	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting proxy server",
			"address", s.config.Server.ListenAddress,
			"cache_enabled", s.config.Cache.Enabled,
			"blocklist_entries", s.blocklist.Len(),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the listener and releases every component.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info("initiating graceful shutdown",
			"timeout", s.config.Server.ShutdownTimeout.String(),
		)

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.scheduler.Stop()
		s.forwarder.Close()
		s.responseCache.Close()
		if err := s.provider.Close(); err != nil {
			s.logger.Warn("closing provider", "error", err)
		}
		if err := s.backend.Close(); err != nil {
			s.logger.Warn("closing limits backend", "error", err)
		}
		if err := s.blocklist.Close(); err != nil {
			s.logger.Warn("closing blocklist", "error", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("proxy server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler builds the route table and middleware chain.
func (s *Server) Handler() http.Handler {
	relay := handlers.NewRelay(s.config.Cache, s.forwarder, s.responseCache,
		s.proxyLimiter, s.collector, s.logger)
	chatHandler := handlers.NewChatHandler(s.gateway, s.collector, s.logger)
	metricsHandler := handlers.NewMetricsHandler(s.collector, s.tokenChecker)
	healthHandler := handlers.NewHealthHandler()
	bareHandler := handlers.NewBareHandler()

	measured := func(endpoint string, h http.HandlerFunc) http.Handler {
		return middleware.MetricsMiddleware(s.collector, endpoint)(h)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /service/{encoded}", measured("service", relay.Service))
	mux.Handle("POST /proxy", measured("proxy", relay.Proxy))
	mux.Handle("POST /api/chat", measured("chat", chatHandler.Chat))
	mux.Handle("GET /api/topics", measured("topics", chatHandler.Topics))
	mux.Handle("GET /api/conversations/{id}", measured("conversations", chatHandler.Conversation))
	mux.Handle("DELETE /api/conversations/{id}", measured("conversations", chatHandler.Conversation))
	mux.Handle("GET /health", healthHandler)
	mux.HandleFunc("GET /metrics", metricsHandler.Aggregates)
	mux.HandleFunc("GET /metrics/prometheus", metricsHandler.Prometheus)
	mux.Handle("GET /bare/", bareHandler)

	// Identity runs outside Logging so the resolved user is in the
	// context fields by the time the access log line is emitted.
	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(s.config.Server.CORS)(handler)
	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = middleware.IdentityMiddleware(s.resolver)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)

	return handler
}
