package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tobiasgrant/storefront/internal/auth"
	"github.com/tobiasgrant/storefront/internal/models"
	"github.com/tobiasgrant/storefront/internal/providers"
	pkgauth "github.com/tobiasgrant/storefront/pkg/auth"
	pkglogger "github.com/tobiasgrant/storefront/pkg/logger"
)

func newTestAuthService(t *testing.T, users UserRepository) (*AuthService, *memoryRefreshTokenRepo) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	refreshRepo := newMemoryRefreshTokenRepo()

	svc := NewAuthService(
		users,
		auth.NewTokenManager("test-secret-test-secret-test-secret", 15*time.Minute),
		auth.NewRefreshTokenManager(refreshRepo, 7*24*time.Hour),
		pkgauth.NewHasher(4),
		NewIdentityLinker(users, logger),
		&MockEmailSender{},
		logger,
		pkglogger.NewAuditLogger(logger),
	)
	return svc, refreshRepo
}

func testPasswordHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := pkgauth.NewHasher(4).Hash(password)
	require.NoError(t, err)
	return hash
}

func TestAuthService_Register(t *testing.T) {
	var created *models.User
	users := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			created = user
			out := *user
			out.ID = "user-1"
			out.CreatedAt = time.Now()
			return &out, nil
		},
	}
	svc, _ := newTestAuthService(t, users)

	resp, err := svc.Register(context.Background(), RegisterParams{
		Email:     "  New.User@Example.COM ",
		Password:  "correct-horse7",
		FirstName: "New",
		LastName:  "User",
	})
	require.NoError(t, err)

	assert.Equal(t, "new.user@example.com", created.Email)
	assert.Equal(t, models.ProviderLocal, created.AuthProvider)
	assert.NotEqual(t, "correct-horse7", created.PasswordHash)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user-1", resp.User.ID)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	svc, _ := newTestAuthService(t, &MockUserRepository{})

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "a@x.com",
		Password: "short",
	})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	users := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrConflict
		},
	}
	svc, _ := newTestAuthService(t, users)

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "taken@example.com",
		Password: "correct-horse7",
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAuthService_Login(t *testing.T) {
	hash := testPasswordHash(t, "correct-horse7")
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email != "a@x.com" {
				return nil, models.ErrNotFound
			}
			return &models.User{ID: "user-1", Email: "a@x.com", PasswordHash: hash, AuthProvider: models.ProviderLocal}, nil
		},
	}
	svc, _ := newTestAuthService(t, users)

	resp, err := svc.Login(context.Background(), "A@X.com", "correct-horse7")
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestAuthService_Login_InvalidCredentialsIndistinguishable(t *testing.T) {
	hash := testPasswordHash(t, "correct-horse7")
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email != "a@x.com" {
				return nil, models.ErrNotFound
			}
			return &models.User{ID: "user-1", Email: "a@x.com", PasswordHash: hash}, nil
		},
	}
	svc, _ := newTestAuthService(t, users)

	_, unknownErr := svc.Login(context.Background(), "nobody@x.com", "whatever1")
	_, wrongErr := svc.Login(context.Background(), "a@x.com", "wrong-password1")

	assert.ErrorIs(t, unknownErr, models.ErrUnauthorized)
	assert.ErrorIs(t, wrongErr, models.ErrUnauthorized)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestAuthService_Login_FederatedOnlyAccount(t *testing.T) {
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{
				ID:           "user-1",
				Email:        "a@x.com",
				AuthProvider: models.ProviderGoogle,
				ProviderID:   "g-123",
			}, nil
		},
	}
	svc, _ := newTestAuthService(t, users)

	_, err := svc.Login(context.Background(), "a@x.com", "any-password1")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	var fedErr *models.FederatedAccountError
	require.ErrorAs(t, err, &fedErr)
	assert.Equal(t, models.ProviderGoogle, fedErr.Provider)
	assert.Contains(t, err.Error(), models.ProviderGoogle)
}

func TestAuthService_Refresh_RotatesSingleUse(t *testing.T) {
	hash := testPasswordHash(t, "correct-horse7")
	user := &models.User{ID: "user-1", Email: "a@x.com", PasswordHash: hash}
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
		GetByIDFunc:    func(ctx context.Context, id string) (*models.User, error) { return user, nil },
	}
	svc, _ := newTestAuthService(t, users)

	login, err := svc.Login(context.Background(), "a@x.com", "correct-horse7")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, "user-1", refreshed.User.ID)

	// The spent secret is dead
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	// The replacement still works
	_, err = svc.Refresh(context.Background(), refreshed.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_Refresh_UnknownSecret(t *testing.T) {
	svc, _ := newTestAuthService(t, &MockUserRepository{})

	_, err := svc.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Refresh_DeletedUser(t *testing.T) {
	hash := testPasswordHash(t, "correct-horse7")
	deleted := false
	user := &models.User{ID: "user-1", Email: "a@x.com", PasswordHash: hash}
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if deleted {
				return nil, models.ErrNotFound
			}
			return user, nil
		},
	}
	svc, _ := newTestAuthService(t, users)

	login, err := svc.Login(context.Background(), "a@x.com", "correct-horse7")
	require.NoError(t, err)

	deleted = true
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	hash := testPasswordHash(t, "correct-horse7")
	user := &models.User{ID: "user-1", Email: "a@x.com", PasswordHash: hash}
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	svc, _ := newTestAuthService(t, users)

	login, err := svc.Login(context.Background(), "a@x.com", "correct-horse7")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), "never-issued"))
	require.NoError(t, svc.Logout(context.Background(), ""))

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_LogoutAll(t *testing.T) {
	hash := testPasswordHash(t, "correct-horse7")
	user := &models.User{ID: "user-1", Email: "a@x.com", PasswordHash: hash}
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
		GetByIDFunc:    func(ctx context.Context, id string) (*models.User, error) { return user, nil },
	}
	svc, _ := newTestAuthService(t, users)

	first, err := svc.Login(context.Background(), "a@x.com", "correct-horse7")
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), "a@x.com", "correct-horse7")
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(context.Background(), "user-1"))

	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = svc.Refresh(context.Background(), second.RefreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_ChangePassword(t *testing.T) {
	hash := testPasswordHash(t, "old-password7")
	user := &models.User{ID: "user-1", Email: "a@x.com", PasswordHash: hash}
	var updatedHash string
	users := &MockUserRepository{
		GetByIDFunc:    func(ctx context.Context, id string) (*models.User, error) { return user, nil },
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
		UpdatePasswordHashFunc: func(ctx context.Context, id string, passwordHash string) error {
			updatedHash = passwordHash
			return nil
		},
	}
	svc, _ := newTestAuthService(t, users)

	login, err := svc.Login(context.Background(), "a@x.com", "old-password7")
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), "user-1", "old-password7", "new-password8")
	require.NoError(t, err)
	assert.True(t, pkgauth.NewHasher(4).Verify(updatedHash, "new-password8"))

	// Every pre-change session is torn down
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_ChangePassword_WrongCurrent(t *testing.T) {
	hash := testPasswordHash(t, "old-password7")
	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: "user-1", Email: "a@x.com", PasswordHash: hash}, nil
		},
	}
	svc, _ := newTestAuthService(t, users)

	err := svc.ChangePassword(context.Background(), "user-1", "not-the-password1", "new-password8")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_FederatedLogin(t *testing.T) {
	users := &MockUserRepository{
		GetByProviderFunc: func(ctx context.Context, provider, providerID string) (*models.User, error) {
			if provider == models.ProviderGoogle && providerID == "g-123" {
				return &models.User{ID: "user-1", Email: "a@x.com", AuthProvider: provider, ProviderID: providerID}, nil
			}
			return nil, models.ErrNotFound
		},
	}
	svc, _ := newTestAuthService(t, users)

	resp, err := svc.FederatedLogin(context.Background(), &providers.Profile{
		Provider:   models.ProviderGoogle,
		ProviderID: "g-123",
		Email:      "a@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestAuthService_ResponseNeverLeaksPasswordHash(t *testing.T) {
	hash := testPasswordHash(t, "correct-horse7")
	user := &models.User{ID: "user-1", Email: "a@x.com", PasswordHash: hash}
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	svc, _ := newTestAuthService(t, users)

	resp, err := svc.Login(context.Background(), "a@x.com", "correct-horse7")
	require.NoError(t, err)
	assert.NotContains(t, resp.User.Email+resp.AccessToken+resp.RefreshToken, hash)
}
