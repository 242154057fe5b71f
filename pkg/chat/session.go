package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"unblock-hq/corsair/pkg/providers"
)

// Session is one user's conversation with the model.
type Session struct {
	// ID is the conversation identifier handed back to the client.
	ID string

	// UserID is the owner; only the owner may read or delete the session.
	UserID string

	// History holds the trailing conversation turns, capped at the
	// configured history limit.
	History []providers.Message

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// LastAccess drives idle eviction.
	LastAccess time.Time
}

// SessionStore holds chat sessions in memory, keyed by conversation id.
// Untouched sessions are evicted after the idle timeout by Sweep, which
// the maintenance scheduler drives at half the timeout.
type SessionStore struct {
	// mu protects sessions
	mu       sync.Mutex
	sessions map[string]*Session

	// historyLimit caps retained turns per session
	historyLimit int

	// idleTimeout is how long an untouched session survives
	idleTimeout time.Duration

	// now is the clock source, overridable in tests
	now func() time.Time
}

// NewSessionStore creates a session store with the given history cap and
// idle timeout.
func NewSessionStore(historyLimit int, idleTimeout time.Duration) *SessionStore {
	return &SessionStore{
		sessions:     make(map[string]*Session),
		historyLimit: historyLimit,
		idleTimeout:  idleTimeout,
		now:          time.Now,
	}
}

// GetOrCreate returns the session for conversationID, creating a fresh one
// (with a generated id) when conversationID is empty or unknown. A session
// owned by a different user is never returned; the caller gets a fresh one
// instead. The session's last-access time is refreshed.
func (s *SessionStore) GetOrCreate(userID, conversationID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if conversationID != "" {
		if sess, ok := s.sessions[conversationID]; ok && sess.UserID == userID {
			sess.LastAccess = now
			return snapshot(sess)
		}
	}

	sess := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		CreatedAt:  now,
		LastAccess: now,
	}
	s.sessions[sess.ID] = sess
	return snapshot(sess)
}

// Append records a completed turn (user message plus model reply) and
// truncates history to the configured cap, keeping the most recent turns.
func (s *SessionStore) Append(conversationID string, userText, modelText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[conversationID]
	if !ok {
		return
	}

	sess.History = append(sess.History,
		providers.Message{Role: providers.RoleUser, Text: userText},
		providers.Message{Role: providers.RoleModel, Text: modelText},
	)
	if s.historyLimit > 0 && len(sess.History) > s.historyLimit {
		sess.History = sess.History[len(sess.History)-s.historyLimit:]
	}
	sess.LastAccess = s.now()
}

// Get returns a copy of the session, with ok=false when it does not exist.
// Ownership is the caller's concern; Get does not refresh last access.
func (s *SessionStore) Get(conversationID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[conversationID]
	if !ok {
		return Session{}, false
	}
	return snapshot(sess), true
}

// Delete removes a session. Returns false when it does not exist.
func (s *SessionStore) Delete(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[conversationID]; !ok {
		return false
	}
	delete(s.sessions, conversationID)
	return true
}

// ListByUser returns copies of all sessions owned by userID.
func (s *SessionStore) ListByUser(userID string) []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, snapshot(sess))
		}
	}
	return out
}

// Sweep evicts sessions idle past the timeout and returns how many were
// removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTimeout)
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastAccess.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// snapshot copies a session so callers cannot mutate stored state.
func snapshot(sess *Session) Session {
	out := *sess
	out.History = append([]providers.Message(nil), sess.History...)
	return out
}
