// Package model defines domain entities for the application.
package model

import "time"

// User is a registered account. Users are immutable after registration.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
}
