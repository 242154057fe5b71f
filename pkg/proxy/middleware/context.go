package middleware

import (
	"context"
	"net/http"

	"unblock-hq/corsair/pkg/auth"
	"unblock-hq/corsair/pkg/telemetry/logging"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// IdentityKey stores the resolved caller identity.
const IdentityKey contextKey = "identity"

// GetRequestID extracts the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	return logging.GetRequestID(ctx)
}

// GetIdentity extracts the resolved caller identity from the context.
// Falls back to an anonymous identity when no resolver ran.
func GetIdentity(ctx context.Context) auth.Identity {
	if id, ok := ctx.Value(IdentityKey).(auth.Identity); ok {
		return id
	}
	return auth.Identity{}
}

// IdentityMiddleware resolves the caller identity once per request and
// stores it in the context for handlers to read. Resolution never fails:
// callers without a valid bearer token are identified by IP. The user is
// also recorded for the request-scoped log fields.
func IdentityMiddleware(resolver auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := resolver.Resolve(r.Context(), r)
			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			ctx = logging.WithUser(ctx, identity.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
