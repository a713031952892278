package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the stateless claim set carried by a signed access token.
// It is never persisted; validity is purely signature + expiry.
type AccessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// RefreshToken is the persisted form of an opaque session credential.
// Only the SHA-256 digest of the bearer secret is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still mint new access tokens.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
