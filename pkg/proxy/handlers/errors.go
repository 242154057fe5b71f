package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"unblock-hq/corsair/pkg/codec"
	"unblock-hq/corsair/pkg/forward"
	"unblock-hq/corsair/pkg/proxy/middleware"
	"unblock-hq/corsair/pkg/proxy/types"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the error envelope, stamping the request ID from the
// request context.
func writeError(w http.ResponseWriter, r *http.Request, resp *types.ErrorResponse) {
	resp.RequestID = middleware.GetRequestID(r.Context())
	writeJSON(w, resp.StatusCode, resp)
}

// mapProxyError translates codec and forwarder failures into the error
// envelope. Upstream non-2xx responses never reach this path; they are
// relayed verbatim.
func mapProxyError(err error) *types.ErrorResponse {
	var invalidEnc *codec.InvalidEncodingError
	if errors.As(err, &invalidEnc) {
		return types.NewError(types.ErrInvalidEncoding,
			"The encoded URL could not be decoded.", http.StatusBadRequest)
	}

	var badScheme *codec.UnsupportedSchemeError
	if errors.As(err, &badScheme) {
		return types.NewError(types.ErrUnsupportedScheme,
			"Only http and https targets can be proxied.", http.StatusBadRequest)
	}

	var blocked *forward.BlockedHostError
	if errors.As(err, &blocked) {
		return types.NewError(types.ErrBlockedHost,
			"The target host is not allowed.", http.StatusForbidden)
	}

	var timeout *forward.TimeoutError
	if errors.As(err, &timeout) {
		return types.NewError(types.ErrTimeout,
			"The target did not respond in time.", http.StatusGatewayTimeout)
	}

	var unavailable *forward.UnavailableError
	if errors.As(err, &unavailable) {
		return types.NewError(types.ErrUnavailable,
			"The target could not be reached.", http.StatusBadGateway)
	}

	var badReq *forward.RequestError
	if errors.As(err, &badReq) {
		return types.NewError(types.ErrInvalidRequest,
			"The proxy request is malformed.", http.StatusBadRequest)
	}

	return types.NewError(types.ErrInternal,
		"An internal error occurred. Please try again later.",
		http.StatusInternalServerError)
}
