package handlers

import (
	"unblock-hq/corsair/pkg/auth"
)

// testIdentity builds an authenticated identity for handler tests.
func testIdentity(userID string) auth.Identity {
	return auth.Identity{UserID: userID, Authenticated: true}
}
