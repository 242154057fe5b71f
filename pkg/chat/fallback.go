package chat

// fallbackResponses are the fixed, user-safe sentences returned in place
// of raw provider error text.
var fallbackResponses = map[ErrorType]string{
	ErrorRateLimited:     "I'm sorry, you've sent too many messages in a short period. Please wait a moment before trying again.",
	ErrorAPIUnavailable:  "I'm currently experiencing connectivity issues. Please try again in a few minutes.",
	ErrorContentFiltered: "I'm unable to respond to that message due to content restrictions. Please try a different question.",
	ErrorTokenLimit:      "Your conversation has become too long. Try starting a new conversation or simplifying your question.",
	ErrorInvalidRequest:  "I couldn't process your request. Please check your message and try again.",
}

// unknownFallback is used for any unclassified failure.
const unknownFallback = "I'm sorry, I encountered an error while processing your request. Please try again later."

// FallbackResponse returns the user-facing sentence for an error type.
func FallbackResponse(errorType ErrorType) string {
	if msg, ok := fallbackResponses[errorType]; ok {
		return msg
	}
	return unknownFallback
}
