package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tobiasgrant/storefront/internal/models"
)

// fakeRefreshTokenRepo is an in-memory RefreshTokenRepository keyed by hash.
type fakeRefreshTokenRepo struct {
	tokens map[string]*models.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	token.ID = uuid.New().String()
	token.CreatedAt = time.Now()
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *fakeRefreshTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, models.ErrNotFound
	}
	return token, nil
}

func (r *fakeRefreshTokenRepo) RevokeByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	token, ok := r.tokens[tokenHash]
	if !ok || !token.Usable(time.Now()) {
		return nil, models.ErrNotFound
	}
	now := time.Now()
	token.RevokedAt = &now
	return token, nil
}

func (r *fakeRefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	now := time.Now()
	for _, token := range r.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "secrets must be unique")
	// 32 bytes base64url, no padding
	assert.GreaterOrEqual(t, len(a), 43)
}

func TestHashSecret_Deterministic(t *testing.T) {
	assert.Equal(t, HashSecret("abc"), HashSecret("abc"))
	assert.NotEqual(t, HashSecret("abc"), HashSecret("abd"))
	assert.Len(t, HashSecret("abc"), 64) // sha256 hex
}

func TestRefreshTokenManager_IssueAndValidate(t *testing.T) {
	repo := newFakeRefreshTokenRepo()
	m := NewRefreshTokenManager(repo, 7*24*time.Hour)

	secret, err := m.Issue(context.Background(), "user123")
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	// Plaintext is never stored
	_, plaintextStored := repo.tokens[secret]
	assert.False(t, plaintextStored)
	_, hashStored := repo.tokens[HashSecret(secret)]
	assert.True(t, hashStored)

	token := m.Validate(context.Background(), secret)
	require.NotNil(t, token)
	assert.Equal(t, "user123", token.UserID)
}

func TestRefreshTokenManager_Validate_Unknown(t *testing.T) {
	m := NewRefreshTokenManager(newFakeRefreshTokenRepo(), 7*24*time.Hour)
	assert.Nil(t, m.Validate(context.Background(), "never-issued"))
}

func TestRefreshTokenManager_Validate_Expired(t *testing.T) {
	repo := newFakeRefreshTokenRepo()
	m := NewRefreshTokenManager(repo, -1*time.Hour)

	secret, err := m.Issue(context.Background(), "user123")
	require.NoError(t, err)

	assert.Nil(t, m.Validate(context.Background(), secret), "expired token must be rejected like a revoked one")
}

func TestRefreshTokenManager_Rotate_SingleUse(t *testing.T) {
	repo := newFakeRefreshTokenRepo()
	m := NewRefreshTokenManager(repo, 7*24*time.Hour)

	secret, err := m.Issue(context.Background(), "user123")
	require.NoError(t, err)

	first := m.Rotate(context.Background(), secret)
	require.NotNil(t, first)
	assert.Equal(t, "user123", first.UserID)

	second := m.Rotate(context.Background(), secret)
	assert.Nil(t, second, "a rotated secret must fail on second presentation")
}

func TestRefreshTokenManager_Revoke_Idempotent(t *testing.T) {
	repo := newFakeRefreshTokenRepo()
	m := NewRefreshTokenManager(repo, 7*24*time.Hour)

	secret, err := m.Issue(context.Background(), "user123")
	require.NoError(t, err)

	require.NoError(t, m.Revoke(context.Background(), secret))
	require.NoError(t, m.Revoke(context.Background(), secret), "revoking twice must not error")
	require.NoError(t, m.Revoke(context.Background(), "never-issued"), "revoking an unknown secret must not error")
}

func TestRefreshTokenManager_RevokeAll(t *testing.T) {
	repo := newFakeRefreshTokenRepo()
	m := NewRefreshTokenManager(repo, 7*24*time.Hour)

	s1, err := m.Issue(context.Background(), "user123")
	require.NoError(t, err)
	s2, err := m.Issue(context.Background(), "user123")
	require.NoError(t, err)
	other, err := m.Issue(context.Background(), "user456")
	require.NoError(t, err)

	require.NoError(t, m.RevokeAll(context.Background(), "user123"))

	assert.Nil(t, m.Validate(context.Background(), s1))
	assert.Nil(t, m.Validate(context.Background(), s2))
	assert.NotNil(t, m.Validate(context.Background(), other), "other users' sessions must survive")
}
