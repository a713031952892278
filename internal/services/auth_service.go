package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tobiasgrant/storefront/internal/auth"
	"github.com/tobiasgrant/storefront/internal/models"
	"github.com/tobiasgrant/storefront/internal/providers"
	pkgauth "github.com/tobiasgrant/storefront/pkg/auth"
	pkglogger "github.com/tobiasgrant/storefront/pkg/logger"
)

// UserRepository is the persistence surface the auth flows need.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByProvider(ctx context.Context, provider, providerID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
	UpdateProviderLink(ctx context.Context, id string, provider, providerID, avatarURL string) (*models.User, error)
}

// AuthService orchestrates registration, credential verification, session
// issuance, rotation, and teardown.
type AuthService struct {
	users       UserRepository
	tokens      *auth.TokenManager
	refresh     *auth.RefreshTokenManager
	hasher      *pkgauth.Hasher
	linker      *IdentityLinker
	mailer      EmailSender
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAuthService(
	users UserRepository,
	tokens *auth.TokenManager,
	refresh *auth.RefreshTokenManager,
	hasher *pkgauth.Hasher,
	linker *IdentityLinker,
	mailer EmailSender,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		refresh:     refresh,
		hasher:      hasher,
		linker:      linker,
		mailer:      mailer,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UserResponse is the sanitized user shape returned by auth operations.
// It never carries the password hash.
type UserResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone,omitempty"`
	AuthProvider  string `json:"auth_provider"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	CreatedAt     string `json:"created_at"`
}

// AuthResponse is the session pair handed back by login-shaped operations.
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}

// RegisterParams carries validated registration input.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Register creates a local-credential account and signs it in.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if err := pkgauth.ValidatePassword(params.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Phone:        params.Phone,
		AuthProvider: models.ProviderLocal,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "register_failed",
				FailureReason: "email_taken",
			})
			return nil, fmt.Errorf("%w: email already registered", models.ErrConflict)
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", pkglogger.SanitizedEmail(user.Email)))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "register_success",
		UserID:    user.ID,
		Success:   true,
	})

	if err := s.mailer.SendWelcome(ctx, user.Email, user.FirstName); err != nil {
		s.logger.Warn("welcome email failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	return s.issueSession(ctx, user)
}

// Login verifies local credentials and issues a session pair. Unknown email
// and wrong password are deliberately indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Burn a hash comparison anyway so the miss costs the same
			// as a wrong password.
			s.hasher.Verify(dummyBcryptHash, password)
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.HasPassword() {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "federated_only",
		})
		return nil, &models.FederatedAccountError{Provider: user.AuthProvider}
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "invalid_credentials",
		})
		return nil, models.ErrUnauthorized
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return s.issueSession(ctx, user)
}

// FederatedLogin resolves a provider profile to a local account and issues
// a session pair for it.
func (s *AuthService) FederatedLogin(ctx context.Context, profile *providers.Profile) (*AuthResponse, error) {
	user, err := s.linker.Resolve(ctx, profile)
	if err != nil {
		s.logger.Error("failed to resolve federated identity",
			slog.String("provider", profile.Provider),
			slog.Any("error", err))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "federated_login_failed",
			FailureReason: "resolution_failed",
		})
		return nil, models.ErrUnauthorized
	}

	s.logger.Info("federated login",
		slog.String("user_id", user.ID),
		slog.String("provider", profile.Provider))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "federated_login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return s.issueSession(ctx, user)
}

// Refresh rotates a presented refresh secret for a new session pair. The old
// secret is dead after this call whether or not issuance succeeds.
func (s *AuthService) Refresh(ctx context.Context, refreshSecret string) (*AuthResponse, error) {
	if refreshSecret = strings.TrimSpace(refreshSecret); refreshSecret == "" {
		return nil, models.ErrUnauthorized
	}

	token := s.refresh.Rotate(ctx, refreshSecret)
	if token == nil {
		s.auditLogger.LogSessionEvent("refresh_rejected", "")
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Account deleted while a session was still live.
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load user for refresh", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogSessionEvent("refresh_rotated", user.ID)

	return s.issueSession(ctx, user)
}

// Logout revokes a single refresh secret. Unknown or already-revoked secrets
// are a no-op so the endpoint stays idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshSecret string) error {
	if refreshSecret = strings.TrimSpace(refreshSecret); refreshSecret == "" {
		return nil
	}
	if err := s.refresh.Revoke(ctx, refreshSecret); err != nil {
		s.logger.Error("failed to revoke refresh token", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// LogoutAll revokes every live session for the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.refresh.RevokeAll(ctx, userID); err != nil {
		s.logger.Error("failed to revoke user sessions",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}
	s.auditLogger.LogSessionEvent("logout_all", userID)
	return nil
}

// ChangePassword rotates the local credential and tears down every live
// session, forcing re-authentication everywhere.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to load user for password change", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.HasPassword() && !s.hasher.Verify(user.PasswordHash, currentPassword) {
		s.auditLogger.LogPasswordChange(user.ID, "", false)
		return models.ErrUnauthorized
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.Error("failed to update password hash", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.refresh.RevokeAll(ctx, user.ID); err != nil {
		s.logger.Error("failed to revoke sessions after password change",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogPasswordChange(user.ID, "", true)

	if err := s.mailer.SendPasswordChanged(ctx, user.Email); err != nil {
		s.logger.Warn("password-changed email failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	return nil
}

// CurrentUser returns the sanitized profile for an authenticated user.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return userModelToResponse(user), nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessToken, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to sign access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshSecret, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to issue refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshSecret,
		User:         userModelToResponse(user),
	}, nil
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Phone:         user.Phone,
		AuthProvider:  user.AuthProvider,
		AvatarURL:     user.AvatarURL,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// A valid bcrypt digest of a random string, compared against when the email
// lookup misses so both failure paths cost one hash verification.
const dummyBcryptHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
