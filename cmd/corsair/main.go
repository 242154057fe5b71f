// Corsair is a bare web proxy with a chat-completion gateway.
//
// It accepts encoded target URLs on a same-origin path, forwards the
// request server-side, and relays the response with rewritten CORS
// headers, freeing browser callers from third-party CORS/CSP
// restrictions. A companion chat endpoint wraps an LLM completion
// provider with per-user sessions, rate limiting, and fallback
// messages.
//
// Usage:
//
//	# Start the server with the default configuration
//	corsair run
//
//	# Start with a custom configuration file
//	corsair run --config /etc/corsair/config.yaml
//
//	# Validate a configuration file
//	corsair validate --config config.yaml
//
//	# Encode a URL for the /service/{encoded} endpoint
//	corsair encode https://example.com/page
//
//	# Show version information
//	corsair version
package main

func main() {
	Execute()
}
