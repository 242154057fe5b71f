// Package server is the top-level orchestrator of the corsair proxy.
//
// It assembles every component from configuration: the blocklist-aware
// request forwarder, the response cache, the proxy and chat rate
// limiters with their persistence backend, the chat-completion gateway,
// and the maintenance scheduler. The components are wired behind the
// route table and middleware chain, and the server manages their
// lifecycle.
//
// # Basic Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger, _ := logging.Setup(cfg.Telemetry.Logging, os.Stderr)
//
//	srv, err := server.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until the context is cancelled or a SIGTERM/SIGINT
// arrives, then drains in-flight requests up to the configured shutdown
// timeout and releases every component.
//
// # Routes
//
//   - GET  /service/{encoded}: decode an encoded URL, forward, relay
//   - POST /proxy: forward a JSON proxy envelope, relay
//   - POST /api/chat: one chat-completion turn
//   - GET  /api/topics: suggested conversation starters
//   - GET/DELETE /api/conversations/{id}: conversation history
//   - GET  /health: liveness probe, no auth
//   - GET  /metrics: JSON aggregate counters, service token required
//   - GET  /metrics/prometheus: scrape endpoint, service token required
//   - GET  /bare/: static proxy metadata
//
// # Middleware Chain
//
// Requests pass through, outermost first: Recovery, RequestID, Identity
// resolution, Logging, CORS, then per-route metrics recording. Identity
// precedes Logging so access log lines carry the resolved user.
package server
