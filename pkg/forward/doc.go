// Package forward performs the outbound half of proxying: it opens the
// HTTP request to the target, strips hop-by-hop and routing-leak headers
// in both directions, stamps X-Forwarded-Host/Proto markers, enforces a
// wall-clock deadline, and retries transient network failures.
//
// The forwarder is transport-only. It does not rewrite CORS headers and
// does not treat non-2xx target responses as errors; both of those are
// the proxy handler's concern.
package forward
