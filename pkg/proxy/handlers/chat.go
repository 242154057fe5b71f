package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"unblock-hq/corsair/pkg/chat"
	"unblock-hq/corsair/pkg/proxy/middleware"
	"unblock-hq/corsair/pkg/proxy/types"
	"unblock-hq/corsair/pkg/telemetry/metrics"
)

// maxChatBodyBytes bounds the inbound chat JSON body.
const maxChatBodyBytes = 64 << 10 // 64KB

// ChatHandler serves the chat gateway endpoints: POST /api/chat,
// GET /api/topics, and GET/DELETE /api/conversations/{id}.
type ChatHandler struct {
	gateway   *chat.Gateway
	collector *metrics.Collector
	logger    *slog.Logger

	// now is the clock source, overridable in tests
	now func() time.Time
}

// NewChatHandler creates the chat endpoints handler.
func NewChatHandler(gateway *chat.Gateway, collector *metrics.Collector, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{
		gateway:   gateway,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// Chat handles POST /api/chat. Anonymous callers are allowed; they get
// an IP-keyed rate-limit bucket and IP-owned sessions.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req ChatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, r, types.NewError(types.ErrInvalidRequest,
			"The request body is not valid JSON.", http.StatusBadRequest))
		return
	}
	if req.Message == "" {
		writeError(w, r, types.NewError(types.ErrInvalidRequest,
			"The message field is required.", http.StatusBadRequest))
		return
	}

	result, err := h.gateway.Chat(r.Context(), identity.UserID, req.ConversationID, req.Message)
	if err != nil {
		var limited *chat.LimitedError
		if errors.As(err, &limited) {
			if h.collector != nil {
				h.collector.RecordRateLimited("chat")
			}
			resp := types.NewError(types.ErrRateLimited, limited.Message, http.StatusTooManyRequests)
			resp.RetryAfter = limited.RetryAfter
			writeError(w, r, resp)
			return
		}
		writeError(w, r, types.NewError(types.ErrInternal,
			"An internal error occurred. Please try again later.",
			http.StatusInternalServerError))
		return
	}

	if h.collector != nil {
		outcome := "success"
		if result.HasError {
			outcome = string(result.ErrorType)
		}
		h.collector.RecordChatTurn(outcome, result.Usage.TotalTokens)
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:       result.Response,
		ConversationID: result.ConversationID,
		Tokens:         result.Usage,
		Model:          result.Model,
		HasError:       result.HasError,
		ErrorType:      string(result.ErrorType),
		Timestamp:      h.now().UTC().Format(time.RFC3339),
		RequestID:      middleware.GetRequestID(r.Context()),
	})
}

// Topics handles GET /api/topics.
func (h *ChatHandler) Topics(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	userID := ""
	if identity.Authenticated {
		userID = identity.UserID
	}

	writeJSON(w, http.StatusOK, TopicsResponse{
		Topics:    h.gateway.Topics(userID),
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Conversation handles GET and DELETE /api/conversations/{id}. Both
// require an authenticated caller owning the conversation.
func (h *ChatHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if !identity.Authenticated {
		writeError(w, r, types.NewError(types.ErrAuthMissing,
			"Authentication is required.", http.StatusUnauthorized))
		return
	}

	id := r.PathValue("id")
	session, ok := h.gateway.Sessions().Get(id)
	if !ok {
		writeError(w, r, types.NewError(types.ErrNotFound,
			"The conversation does not exist.", http.StatusNotFound))
		return
	}
	if session.UserID != identity.UserID {
		writeError(w, r, types.NewError(types.ErrForbidden,
			"The conversation does not belong to you.", http.StatusForbidden))
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, ConversationResponse{
			ConversationID: session.ID,
			History:        session.History,
			CreatedAt:      session.CreatedAt.UTC().Format(time.RFC3339),
			LastAccess:     session.LastAccess.UTC().Format(time.RFC3339),
		})

	case http.MethodDelete:
		h.gateway.Sessions().Delete(id)
		h.logger.Info("conversation deleted",
			"conversation_id", id,
			"user_id", identity.UserID,
		)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, r, types.NewError(types.ErrInvalidRequest,
			"Method not allowed.", http.StatusMethodNotAllowed))
	}
}
