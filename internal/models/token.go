package models

import (
	"time"
)

// TokenRecord is the stored credential state for one basecamp user.
// At most one live record exists per UserID; the refresh token rotates
// on every successful refresh and the old value becomes invalid.
type TokenRecord struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AccountID    string
	Email        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credential is the pair a gateway instance is constructed with.
// It is built from a resolved TokenRecord, never from caller input.
type Credential struct {
	AccessToken string
	AccountID   string
}
