package handlers

import (
	"context"

	"github.com/tobiasgrant/storefront/internal/models"
	"github.com/tobiasgrant/storefront/internal/providers"
	"github.com/tobiasgrant/storefront/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc       func(ctx context.Context, params services.RegisterParams) (*services.AuthResponse, error)
	LoginFunc          func(ctx context.Context, email, password string) (*services.AuthResponse, error)
	FederatedLoginFunc func(ctx context.Context, profile *providers.Profile) (*services.AuthResponse, error)
	RefreshFunc        func(ctx context.Context, refreshSecret string) (*services.AuthResponse, error)
	LogoutFunc         func(ctx context.Context, refreshSecret string) error
	LogoutAllFunc      func(ctx context.Context, userID string) error
	ChangePasswordFunc func(ctx context.Context, userID, currentPassword, newPassword string) error
	CurrentUserFunc    func(ctx context.Context, userID string) (*services.UserResponse, error)
}

func (m *MockAuthService) Register(ctx context.Context, params services.RegisterParams) (*services.AuthResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, params)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) FederatedLogin(ctx context.Context, profile *providers.Profile) (*services.AuthResponse, error) {
	if m.FederatedLoginFunc != nil {
		return m.FederatedLoginFunc(ctx, profile)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshSecret string) (*services.AuthResponse, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshSecret)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Logout(ctx context.Context, refreshSecret string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, refreshSecret)
	}
	return nil
}

func (m *MockAuthService) LogoutAll(ctx context.Context, userID string) error {
	if m.LogoutAllFunc != nil {
		return m.LogoutAllFunc(ctx, userID)
	}
	return nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword)
	}
	return nil
}

func (m *MockAuthService) CurrentUser(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, userID)
	}
	return nil, models.ErrUnauthorized
}

func testAuthResponse(userID string) *services.AuthResponse {
	return &services.AuthResponse{
		AccessToken:  "access-token",
		RefreshToken: "refresh-secret",
		User: &services.UserResponse{
			ID:    userID,
			Email: "a@x.com",
		},
	}
}
