package providers

import (
	"context"
	"errors"
)

var (
	ErrTokenExchange = errors.New("provider token exchange failed")
	ErrUserInfo      = errors.New("provider user info request failed")
)

// Profile is the normalized identity a provider client yields after a
// completed authorization handshake. It is the only shape downstream
// linking logic ever sees.
type Profile struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Client performs the user-facing half of a federated login: building the
// consent URL, exchanging the callback code, and fetching the profile.
type Client interface {
	Name() string

	// AuthCodeURL builds the provider consent URL carrying the CSRF state nonce.
	AuthCodeURL(state string) string

	// Exchange trades the callback authorization code for a provider access token.
	Exchange(ctx context.Context, code string) (string, error)

	// FetchProfile retrieves the normalized identity profile.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}
