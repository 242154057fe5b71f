// Package chat implements the chat-completion gateway: per-user sessions
// with capped history and idle eviction, a per-user message quota with
// escalating refusal messages, provider error classification by keyword
// family, and fixed fallback sentences so raw provider error text never
// reaches the user.
package chat
