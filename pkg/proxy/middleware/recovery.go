package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"unblock-hq/corsair/pkg/proxy/types"
)

// RecoveryMiddleware recovers from panics in handlers and returns a 500
// error envelope. The panic and stack trace are logged server-side; the
// client only sees a generic message plus the request ID.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					requestID := GetRequestID(r.Context())

					logger.Error("panic in handler",
						"error", rec,
						"request_id", requestID,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					errResp := types.NewError(types.ErrInternal,
						"An internal error occurred. Please try again later.",
						http.StatusInternalServerError)
					errResp.RequestID = requestID

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(errResp)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
