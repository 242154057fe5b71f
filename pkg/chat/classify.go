package chat

import "strings"

// ErrorType classifies a provider failure into a user-facing category.
type ErrorType string

// Provider failure categories.
const (
	ErrorRateLimited     ErrorType = "RATE_LIMITED"
	ErrorAPIUnavailable  ErrorType = "API_UNAVAILABLE"
	ErrorContentFiltered ErrorType = "CONTENT_FILTERED"
	ErrorTokenLimit      ErrorType = "TOKEN_LIMIT"
	ErrorInvalidRequest  ErrorType = "INVALID_REQUEST"
	ErrorUnknown         ErrorType = "UNKNOWN"
)

// Classify maps a provider error to an ErrorType by keyword families in
// the error text. This is best-effort string matching; anything
// unrecognized is UNKNOWN.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorUnknown
	}
	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "rate limit", "quota"):
		return ErrorRateLimited
	case containsAny(msg, "content filtered", "safety"):
		return ErrorContentFiltered
	case strings.Contains(msg, "token") && strings.Contains(msg, "limit"):
		return ErrorTokenLimit
	case containsAny(msg, "invalid request", "bad request"):
		return ErrorInvalidRequest
	case containsAny(msg, "unavailable", "timeout", "network"):
		return ErrorAPIUnavailable
	}
	return ErrorUnknown
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
