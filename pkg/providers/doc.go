// Package providers contains the completion provider abstraction the chat
// gateway depends on, its typed errors, and the Gemini implementation with
// model fallback.
package providers
