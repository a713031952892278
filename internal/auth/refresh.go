package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tobiasgrant/storefront/internal/models"
)

const refreshSecretLength = 32 // 256 bits of entropy

// RefreshTokenRepository is the persistence surface the manager needs.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	// RevokeByHash conditionally revokes a still-usable token and returns it.
	// Returns models.ErrNotFound when the token is missing, already revoked,
	// or expired; concurrent callers race on this single write.
	RevokeByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeAllForUser(ctx context.Context, userID string) error
}

// RefreshTokenManager mints, validates, rotates, and revokes the opaque
// long-lived half of the session pair. Plaintext secrets never touch the
// store; rows hold only a SHA-256 digest.
type RefreshTokenManager struct {
	repo RefreshTokenRepository
	ttl  time.Duration
}

func NewRefreshTokenManager(repo RefreshTokenRepository, ttl time.Duration) *RefreshTokenManager {
	return &RefreshTokenManager{repo: repo, ttl: ttl}
}

// GenerateSecret returns a cryptographically random opaque secret rendered
// as a printable string.
func GenerateSecret() (string, error) {
	bytes := make([]byte, refreshSecretLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// HashSecret derives the deterministic digest used to store and look up a
// refresh token.
func HashSecret(secret string) string {
	digest := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(digest[:])
}

// Issue generates a fresh secret and persists its digest for the user.
// The plaintext secret is returned to the caller exactly once.
func (m *RefreshTokenManager) Issue(ctx context.Context, userID string) (string, error) {
	secret, err := GenerateSecret()
	if err != nil {
		return "", err
	}

	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: HashSecret(secret),
		ExpiresAt: time.Now().Add(m.ttl),
	}

	if err := m.repo.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return secret, nil
}

// Validate looks up a presented secret. It returns nil when the token is
// unknown, revoked, or expired; the three outcomes are indistinguishable
// to the caller.
func (m *RefreshTokenManager) Validate(ctx context.Context, secret string) *models.RefreshToken {
	token, err := m.repo.GetByHash(ctx, HashSecret(secret))
	if err != nil {
		return nil
	}
	if !token.Usable(time.Now()) {
		return nil
	}
	return token
}

// Rotate atomically revokes the presented secret and reports its owning
// token. Rotation is single-use: of two concurrent calls with the same
// secret, exactly one receives the token; the other gets nil.
func (m *RefreshTokenManager) Rotate(ctx context.Context, secret string) *models.RefreshToken {
	token, err := m.repo.RevokeByHash(ctx, HashSecret(secret))
	if err != nil {
		return nil
	}
	return token
}

// Revoke invalidates a single presented secret. Revoking an unknown or
// already-revoked token is a no-op, not an error.
func (m *RefreshTokenManager) Revoke(ctx context.Context, secret string) error {
	_, err := m.repo.RevokeByHash(ctx, HashSecret(secret))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return nil
}

// RevokeAll invalidates every live session for a user ("sign out everywhere",
// password change).
func (m *RefreshTokenManager) RevokeAll(ctx context.Context, userID string) error {
	return m.repo.RevokeAllForUser(ctx, userID)
}

// TTL exposes the configured lifetime, used by the HTTP layer to scope the
// refresh cookie.
func (m *RefreshTokenManager) TTL() time.Duration {
	return m.ttl
}
