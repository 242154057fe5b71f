// Package handlers implements the HTTP endpoints of the proxy server:
// the relay endpoints (GET /service/{encoded}, POST /proxy), the chat
// gateway endpoints (/api/chat, /api/topics, /api/conversations/{id}),
// and the operator endpoints (/health, /metrics, /bare/).
package handlers
