package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"unblock-hq/corsair/pkg/config"
)

// Identity is who a request is attributed to for rate limiting and
// session ownership: the verified user id when the caller presented a
// valid token, else the caller's IP address.
type Identity struct {
	// UserID is the stable identity key.
	UserID string

	// Authenticated is true when UserID came from a verified token.
	Authenticated bool
}

// Resolver resolves a request to an Identity.
type Resolver interface {
	Resolve(ctx context.Context, r *http.Request) Identity
}

// UserStoreResolver verifies Bearer tokens against an external user store
// and falls back to the caller IP when there is no token, the store is
// unreachable, or the token is rejected.
type UserStoreResolver struct {
	storeURL string
	client   *http.Client
	logger   *slog.Logger
}

// NewUserStoreResolver creates a resolver from cfg. An empty user store
// URL makes every caller IP-identified.
func NewUserStoreResolver(cfg config.AuthConfig, logger *slog.Logger) *UserStoreResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStoreResolver{
		storeURL: cfg.UserStoreURL,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// Resolve returns the verified user id for a Bearer token, or the caller
// IP. Verification failures degrade to IP identity rather than rejecting
// the request; endpoints that require authentication check Authenticated.
func (u *UserStoreResolver) Resolve(ctx context.Context, r *http.Request) Identity {
	token := bearerToken(r)
	if token == "" || u.storeURL == "" {
		return Identity{UserID: ClientIP(r)}
	}

	userID, err := u.verify(ctx, token)
	if err != nil {
		u.logger.Warn("token verification failed, using IP identity",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		return Identity{UserID: ClientIP(r)}
	}

	return Identity{UserID: userID, Authenticated: true}
}

// verify asks the user store who the token belongs to.
func (u *UserStoreResolver) verify(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.storeURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &TokenRejectedError{Status: resp.StatusCode}
	}

	var payload struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.UserID == "" {
		return "", &TokenRejectedError{Status: resp.StatusCode}
	}
	return payload.UserID, nil
}

// bearerToken extracts the Bearer credential from the Authorization
// header, empty when absent or differently schemed.
func bearerToken(r *http.Request) string {
	value := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(value) > len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
		return value[len(prefix):]
	}
	return ""
}

// ClientIP returns the caller's IP: the first X-Forwarded-For hop when
// present, else the RemoteAddr host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
