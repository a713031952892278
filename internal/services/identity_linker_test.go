package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tobiasgrant/storefront/internal/models"
	"github.com/tobiasgrant/storefront/internal/providers"
)

func newTestLinker(users UserRepository) *IdentityLinker {
	return NewIdentityLinker(users, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestIdentityLinker_ExistingProviderLinkWins(t *testing.T) {
	linked := &models.User{ID: "user-1", Email: "old@x.com", AuthProvider: models.ProviderGoogle, ProviderID: "g-123"}
	users := &MockUserRepository{
		GetByProviderFunc: func(ctx context.Context, provider, providerID string) (*models.User, error) {
			return linked, nil
		},
		// Email lookup must not even be consulted
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			t.Fatal("unexpected email lookup")
			return nil, nil
		},
	}

	user, err := newTestLinker(users).Resolve(context.Background(), &providers.Profile{
		Provider:   models.ProviderGoogle,
		ProviderID: "g-123",
		Email:      "new@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestIdentityLinker_LinksOntoEmailMatch(t *testing.T) {
	local := &models.User{ID: "user-1", Email: "a@x.com", PasswordHash: "hash", AuthProvider: models.ProviderLocal}
	var linkedProvider, linkedProviderID string
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email == "a@x.com" {
				return local, nil
			}
			return nil, models.ErrNotFound
		},
		UpdateProviderLinkFunc: func(ctx context.Context, id string, provider, providerID, avatarURL string) (*models.User, error) {
			linkedProvider, linkedProviderID = provider, providerID
			widened := *local
			widened.AuthProvider = provider
			widened.ProviderID = providerID
			widened.EmailVerified = true
			return &widened, nil
		},
	}

	user, err := newTestLinker(users).Resolve(context.Background(), &providers.Profile{
		Provider:   models.ProviderGitHub,
		ProviderID: "gh-9",
		Email:      "a@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, models.ProviderGitHub, linkedProvider)
	assert.Equal(t, "gh-9", linkedProviderID)
	assert.True(t, user.EmailVerified)
	// Local credential survives the link
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestIdentityLinker_CreatesNewAccount(t *testing.T) {
	var created *models.User
	users := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			created = user
			out := *user
			out.ID = "user-new"
			return &out, nil
		},
	}

	user, err := newTestLinker(users).Resolve(context.Background(), &providers.Profile{
		Provider:    models.ProviderGoogle,
		ProviderID:  "g-123",
		Email:       "fresh@x.com",
		DisplayName: "Ada Example Lovelace",
		AvatarURL:   "https://example.com/a.png",
	})
	require.NoError(t, err)

	assert.Equal(t, "user-new", user.ID)
	assert.Equal(t, "fresh@x.com", created.Email)
	assert.Equal(t, "Ada", created.FirstName)
	assert.Equal(t, "Example Lovelace", created.LastName)
	assert.True(t, created.EmailVerified)
	assert.False(t, created.HasPassword())
}

func TestIdentityLinker_SynthesizesEmailWhenWithheld(t *testing.T) {
	var created *models.User
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			t.Fatal("unexpected email lookup for empty email")
			return nil, nil
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			created = user
			out := *user
			out.ID = "user-new"
			return &out, nil
		},
	}

	_, err := newTestLinker(users).Resolve(context.Background(), &providers.Profile{
		Provider:   models.ProviderGitHub,
		ProviderID: "gh-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "github.gh-9@login.invalid", created.Email)
}

func TestIdentityLinker_CreateRaceFallsBackToLookup(t *testing.T) {
	winner := &models.User{ID: "user-1", AuthProvider: models.ProviderGoogle, ProviderID: "g-123"}
	calls := 0
	users := &MockUserRepository{
		GetByProviderFunc: func(ctx context.Context, provider, providerID string) (*models.User, error) {
			calls++
			if calls == 1 {
				return nil, models.ErrNotFound
			}
			return winner, nil
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrConflict
		},
	}

	user, err := newTestLinker(users).Resolve(context.Background(), &providers.Profile{
		Provider:   models.ProviderGoogle,
		ProviderID: "g-123",
		Email:      "a@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestIdentityLinker_MissingSubjectID(t *testing.T) {
	_, err := newTestLinker(&MockUserRepository{}).Resolve(context.Background(), &providers.Profile{
		Provider: models.ProviderGoogle,
	})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}
