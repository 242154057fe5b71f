package providers

import "context"

// Message is one turn of a conversation sent to the completion provider.
type Message struct {
	// Role identifies the message sender ("user" or "model")
	Role string `json:"role"`

	// Text is the message content
	Text string `json:"text"`
}

// Roles recognized in conversation history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Usage reports token accounting for one completion.
type Usage struct {
	InputTokens  int `json:"input"`
	OutputTokens int `json:"output"`
	TotalTokens  int `json:"total"`
}

// Completion is the provider's reply to one turn.
type Completion struct {
	// Text is the model's reply.
	Text string

	// Model is the model that produced the reply (after any fallback).
	Model string

	// Usage is the provider-reported token accounting, zero when the
	// provider does not report it.
	Usage Usage
}

// CompletionProvider is the interface the chat gateway speaks to.
// It takes the trailing conversation history plus the new user message and
// returns the model's reply.
//
// Implementations must respect context cancellation and return immediately
// when the context is cancelled.
type CompletionProvider interface {
	// Complete sends history plus the new message and returns the reply.
	// Transient failures are retried internally with exponential backoff
	// before an error surfaces.
	Complete(ctx context.Context, history []Message, message string) (*Completion, error)

	// Model returns the model identifier currently in use.
	Model() string

	// Close releases the provider's resources.
	Close() error
}
