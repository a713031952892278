package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tobiasgrant/storefront/internal/auth"
	"github.com/tobiasgrant/storefront/internal/models"
	"github.com/tobiasgrant/storefront/internal/providers"
	"github.com/tobiasgrant/storefront/internal/services"
	pkghttp "github.com/tobiasgrant/storefront/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, params services.RegisterParams) (*services.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*services.AuthResponse, error)
	FederatedLogin(ctx context.Context, profile *providers.Profile) (*services.AuthResponse, error)
	Refresh(ctx context.Context, refreshSecret string) (*services.AuthResponse, error)
	Logout(ctx context.Context, refreshSecret string) error
	LogoutAll(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*services.UserResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service      AuthServiceInterface
	cookieConfig auth.CookieConfig
	refreshTTL   time.Duration
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, cookieConfig auth.CookieConfig, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieConfig: cookieConfig,
		refreshTTL:   refreshTTL,
	}
}

// Request DTOs

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the optional body fallback when no refresh cookie is set
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// SessionResponse is the body returned by pair-issuing endpoints. The
// refresh secret travels only in the cookie, never in the body.
type SessionResponse struct {
	User        *services.UserResponse `json:"user"`
	AccessToken string                 `json:"access_token"`
}

// Register handles local-credential account creation and signs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authResp, err := h.service.Register(r.Context(), services.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Email is already registered")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Password does not meet requirements")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	h.writeSession(w, authResp, http.StatusCreated)
}

// Login handles local-credential sign-in.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authResp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// A federated-only account names its provider; credential mismatches
		// stay deliberately generic.
		var fedErr *models.FederatedAccountError
		if errors.As(err, &fedErr) {
			pkghttp.WriteUnauthorized(w, fedErr.Error())
			return
		}
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Authentication failed")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	h.writeSession(w, authResp, http.StatusOK)
}

// Refresh rotates the presented refresh secret for a new session pair.
// The secret comes from the cookie when present, the body otherwise.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	secret := h.refreshSecretFromRequest(r)
	if secret == "" {
		pkghttp.WriteUnauthorized(w, "Authentication failed")
		return
	}

	authResp, err := h.service.Refresh(r.Context(), secret)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			auth.ClearRefreshTokenCookie(w, h.cookieConfig)
			pkghttp.WriteUnauthorized(w, "Authentication failed")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	h.writeSession(w, authResp, http.StatusOK)
}

// Logout revokes the presented refresh secret and clears the cookie. It
// succeeds whether or not the secret was still live.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	secret := h.refreshSecretFromRequest(r)

	if secret != "" {
		if err := h.service.Logout(r.Context(), secret); err != nil {
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}
	}

	auth.ClearRefreshTokenCookie(w, h.cookieConfig)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Logged out"})
}

// LogoutAll revokes every live session for the authenticated user.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	if err := h.service.LogoutAll(r.Context(), claims.UserID); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.ClearRefreshTokenCookie(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword rotates the local credential for the authenticated user and
// signs them out everywhere.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Current password is incorrect")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Password does not meet requirements")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.ClearRefreshTokenCookie(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the sanitized profile of the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "unauthorized")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(user)
}

func (h *AuthHandler) refreshSecretFromRequest(r *http.Request) string {
	if secret, err := auth.GetRefreshTokenCookie(r); err == nil && secret != "" {
		return secret
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, authResp *services.AuthResponse, status int) {
	auth.SetRefreshTokenCookie(w, authResp.RefreshToken, int(h.refreshTTL.Seconds()), h.cookieConfig)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(SessionResponse{
		User:        authResp.User,
		AccessToken: authResp.AccessToken,
	})
}
