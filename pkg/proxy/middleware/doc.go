// Package middleware provides the HTTP middleware chain for the proxy
// server: request IDs, CORS stamping, identity resolution, structured
// request logging, panic recovery, and metrics recording.
package middleware
