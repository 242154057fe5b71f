package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"unblock-hq/corsair/pkg/limits/ratelimit"
	"unblock-hq/corsair/pkg/providers"
)

// LimitedError is returned when a user is over their message quota.
// Message escalates for users saturating several consecutive windows.
type LimitedError struct {
	// Message is the user-facing rate limit sentence.
	Message string

	// RetryAfter is seconds until the window resets.
	RetryAfter int
}

// Error implements the error interface.
func (e *LimitedError) Error() string {
	return fmt.Sprintf("chat rate limit exceeded, retry after %ds", e.RetryAfter)
}

// Result is the outcome of one chat turn. Provider failures do not
// surface as errors; they come back as a fallback Response with HasError
// set, so the user always gets a readable sentence.
type Result struct {
	// Response is the model reply, or a fallback sentence on failure.
	Response string

	// ConversationID identifies the session for follow-up turns.
	ConversationID string

	// Model is the model that produced the reply, empty on failure.
	Model string

	// Usage is the provider-reported token accounting.
	Usage providers.Usage

	// HasError reports that Response is a fallback sentence.
	HasError bool

	// ErrorType is the failure category when HasError is set.
	ErrorType ErrorType
}

// Gateway runs chat turns: rate-limit check, session lookup, provider
// call, history bookkeeping, and error classification with fallbacks.
type Gateway struct {
	limiter  *ratelimit.Limiter
	sessions *SessionStore
	provider providers.CompletionProvider
	logger   *slog.Logger

	// now is the clock source, overridable in tests
	now func() time.Time
}

// NewGateway wires a gateway from its collaborators.
func NewGateway(limiter *ratelimit.Limiter, sessions *SessionStore, provider providers.CompletionProvider, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		limiter:  limiter,
		sessions: sessions,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// Sessions exposes the session store for the conversations API and the
// maintenance sweep.
func (g *Gateway) Sessions() *SessionStore {
	return g.sessions
}

// Chat runs one turn for userID. conversationID may be empty to start a
// new conversation.
//
// Over-quota users get a *LimitedError. Provider failures are classified
// and come back as a fallback Result, never as raw provider text.
func (g *Gateway) Chat(ctx context.Context, userID, conversationID, message string) (*Result, error) {
	cfg := g.limiter.Config()
	state := g.limiter.Check(userID)
	if state.Limited {
		retryAfter := state.RetryAfter(cfg.Window, g.now())

		g.logger.Warn("chat rate limit exceeded",
			"user_id", userID,
			"consecutive_windows", state.ConsecutiveWindows,
		)

		var msg string
		if state.ConsecutiveWindows > cfg.EscalationThreshold {
			msg = "I'm sorry, but you've been sending too many messages. Please try again later."
		} else {
			msg = fmt.Sprintf("I'm sorry, you've reached the limit of %d messages per minute. Please try again in %d seconds.",
				cfg.MaxPerWindow, retryAfter)
		}
		return nil, &LimitedError{Message: msg, RetryAfter: retryAfter}
	}

	session := g.sessions.GetOrCreate(userID, conversationID)

	completion, err := g.provider.Complete(ctx, session.History, message)
	if err != nil {
		errorType := Classify(err)
		g.logger.Error("chat completion failed",
			"user_id", userID,
			"conversation_id", session.ID,
			"error_type", string(errorType),
			"error", err,
		)
		return &Result{
			Response:       FallbackResponse(errorType),
			ConversationID: session.ID,
			HasError:       true,
			ErrorType:      errorType,
		}, nil
	}

	g.sessions.Append(session.ID, message, completion.Text)

	g.logger.Info("chat turn completed",
		"user_id", userID,
		"conversation_id", session.ID,
		"model", completion.Model,
		"total_tokens", completion.Usage.TotalTokens,
	)

	return &Result{
		Response:       completion.Text,
		ConversationID: session.ID,
		Model:          completion.Model,
		Usage:          completion.Usage,
	}, nil
}
