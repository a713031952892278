package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tobiasgrant/storefront/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc         func(ctx context.Context, email string) (*models.User, error)
	GetByProviderFunc      func(ctx context.Context, provider, providerID string) (*models.User, error)
	CreateFunc             func(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordHashFunc func(ctx context.Context, id string, passwordHash string) error
	UpdateProviderLinkFunc func(ctx context.Context, id string, provider, providerID, avatarURL string) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	if m.GetByProviderFunc != nil {
		return m.GetByProviderFunc(ctx, provider, providerID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	if m.UpdatePasswordHashFunc != nil {
		return m.UpdatePasswordHashFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) UpdateProviderLink(ctx context.Context, id string, provider, providerID, avatarURL string) (*models.User, error) {
	if m.UpdateProviderLinkFunc != nil {
		return m.UpdateProviderLinkFunc(ctx, id, provider, providerID, avatarURL)
	}
	return nil, models.ErrInternalServer
}

// memoryRefreshTokenRepo is an in-memory auth.RefreshTokenRepository used to
// exercise real issuance and rotation semantics in service tests.
type memoryRefreshTokenRepo struct {
	mu     sync.Mutex
	byHash map[string]*models.RefreshToken
}

func newMemoryRefreshTokenRepo() *memoryRefreshTokenRepo {
	return &memoryRefreshTokenRepo{byHash: make(map[string]*models.RefreshToken)}
}

func (r *memoryRefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byHash[token.TokenHash]; exists {
		return models.ErrConflict
	}
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now()
	r.byHash[token.TokenHash] = token
	return nil
}

func (r *memoryRefreshTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.byHash[tokenHash]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *token
	return &copied, nil
}

func (r *memoryRefreshTokenRepo) RevokeByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.byHash[tokenHash]
	if !ok || !token.Usable(time.Now()) {
		return nil, models.ErrNotFound
	}
	now := time.Now()
	token.RevokedAt = &now
	copied := *token
	return &copied, nil
}

func (r *memoryRefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, token := range r.byHash {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

// MockEmailSender implements EmailSender for testing
type MockEmailSender struct {
	SendWelcomeFunc         func(ctx context.Context, email, name string) error
	SendPasswordChangedFunc func(ctx context.Context, email string) error
}

func (m *MockEmailSender) SendWelcome(ctx context.Context, email, name string) error {
	if m.SendWelcomeFunc != nil {
		return m.SendWelcomeFunc(ctx, email, name)
	}
	return nil
}

func (m *MockEmailSender) SendPasswordChanged(ctx context.Context, email string) error {
	if m.SendPasswordChangedFunc != nil {
		return m.SendPasswordChangedFunc(ctx, email)
	}
	return nil
}
