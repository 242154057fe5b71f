package auth

import (
	"crypto/subtle"
	"fmt"
)

// TokenRejectedError represents a token the user store did not accept.
type TokenRejectedError struct {
	// Status is the user store's response status.
	Status int
}

// Error implements the error interface.
func (e *TokenRejectedError) Error() string {
	return fmt.Sprintf("token rejected by user store (status %d)", e.Status)
}

// ServiceTokenChecker guards operator endpoints with a shared secret,
// distinct from per-user identity.
type ServiceTokenChecker struct {
	token string
}

// NewServiceTokenChecker creates a checker. An empty token disables the
// guarded endpoints entirely.
func NewServiceTokenChecker(token string) *ServiceTokenChecker {
	return &ServiceTokenChecker{token: token}
}

// Enabled reports whether a service token is configured.
func (c *ServiceTokenChecker) Enabled() bool {
	return c.token != ""
}

// Check compares presented against the configured token in constant time.
func (c *ServiceTokenChecker) Check(presented string) bool {
	if c.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.token), []byte(presented)) == 1
}
