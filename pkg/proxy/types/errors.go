package types

// Error kinds carried in the error envelope's "error" field.
const (
	ErrInvalidEncoding   = "InvalidEncoding"
	ErrUnsupportedScheme = "UnsupportedScheme"
	ErrInvalidRequest    = "InvalidRequest"
	ErrBlockedHost       = "BlockedHost"
	ErrRateLimited       = "RateLimited"
	ErrTimeout           = "Timeout"
	ErrUnavailable       = "UpstreamUnavailable"
	ErrAuthMissing       = "AuthMissing"
	ErrAuthInvalid       = "AuthInvalid"
	ErrForbidden         = "Forbidden"
	ErrNotFound          = "NotFound"
	ErrInternal          = "Internal"
)

// ErrorResponse is the JSON error envelope returned by every endpoint.
type ErrorResponse struct {
	// Error is the machine-readable error kind.
	Error string `json:"error"`

	// Message is a human-readable description. Never contains upstream
	// or provider-internal error text.
	Message string `json:"message"`

	// StatusCode mirrors the HTTP status of the response.
	StatusCode int `json:"status_code"`

	// RequestID correlates this response with server logs.
	RequestID string `json:"request_id,omitempty"`

	// RetryAfter is set on rate-limit errors: seconds until the window
	// resets.
	RetryAfter int `json:"retryAfter,omitempty"`
}

// NewError creates an error envelope.
func NewError(kind, message string, statusCode int) *ErrorResponse {
	return &ErrorResponse{
		Error:      kind,
		Message:    message,
		StatusCode: statusCode,
	}
}
