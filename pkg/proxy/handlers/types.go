package handlers

import (
	"unblock-hq/corsair/pkg/providers"
)

// Version is the server version reported by /health and /bare/.
// Overridden at build time via -ldflags.
var Version = "dev"

// ProxyRequest is the JSON envelope accepted by POST /proxy.
type ProxyRequest struct {
	// URL is the absolute http/https target URL. Required.
	URL string `json:"url"`

	// Method is the HTTP verb, defaulting to GET.
	Method string `json:"method,omitempty"`

	// Headers are forwarded to the target, minus the deny-list the
	// forwarder applies.
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the raw request body for non-GET/HEAD methods.
	Body string `json:"body,omitempty"`
}

// ProxyResponse wraps a target's reply when the /proxy caller asks for
// JSON via the Accept header. The target's status travels inside the
// payload; the outer response is always 200.
type ProxyResponse struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// ChatRequest is the JSON body accepted by POST /api/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse is the JSON reply from POST /api/chat.
type ChatResponse struct {
	Response       string          `json:"response"`
	ConversationID string          `json:"conversation_id"`
	Tokens         providers.Usage `json:"tokens"`
	Model          string          `json:"model,omitempty"`
	HasError       bool            `json:"hasError"`
	ErrorType      string          `json:"errorType,omitempty"`
	Timestamp      string          `json:"timestamp"`
	RequestID      string          `json:"request_id"`
}

// TopicsResponse is the JSON reply from GET /api/topics.
type TopicsResponse struct {
	Topics    []string `json:"topics"`
	Timestamp string   `json:"timestamp"`
}

// ConversationResponse is the JSON reply from GET /api/conversations/{id}.
type ConversationResponse struct {
	ConversationID string              `json:"conversation_id"`
	History        []providers.Message `json:"history"`
	CreatedAt      string              `json:"created_at"`
	LastAccess     string              `json:"last_access"`
}

// HealthResponse is the JSON reply from GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}
