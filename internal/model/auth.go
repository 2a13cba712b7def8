package model

import "time"

// AuthContext holds the authenticated identity of a request.
// This is injected into the request context by the auth middleware.
type AuthContext struct {
	UserID   string
	IssuedAt time.Time
	// ExpiresAt is zero when the token carries no expiry.
	ExpiresAt time.Time
}
