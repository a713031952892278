package models

import (
	"time"
)

// Auth providers a user record can belong to
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

type User struct {
	ID            string
	Email         string
	PasswordHash  string // empty for federated-only users
	FirstName     string
	LastName      string
	Phone         string
	AuthProvider  string // "local", "google", "github"
	ProviderID    string // external subject id, empty for local accounts
	AvatarURL     string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasPassword reports whether the account can authenticate with local credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// IsFederated reports whether the account is linked to an external identity provider.
func (u *User) IsFederated() bool {
	return u.ProviderID != ""
}
