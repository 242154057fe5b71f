// Package auth resolves request identities for rate limiting and session
// ownership, and checks the service token guarding operator endpoints.
package auth
