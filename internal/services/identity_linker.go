package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tobiasgrant/storefront/internal/models"
	"github.com/tobiasgrant/storefront/internal/providers"
	pkglogger "github.com/tobiasgrant/storefront/pkg/logger"
)

// IdentityLinker resolves a federated profile to exactly one local account.
//
// Resolution order:
//  1. an account already linked to (provider, provider_id) wins outright
//  2. an account matching the provider-asserted email gets the identity
//     linked onto it, so both sign-in paths land on the same user
//  3. otherwise a new account is created
type IdentityLinker struct {
	users  UserRepository
	logger *slog.Logger
}

func NewIdentityLinker(users UserRepository, logger *slog.Logger) *IdentityLinker {
	return &IdentityLinker{users: users, logger: logger}
}

// Resolve finds or creates the local account for a provider profile.
func (l *IdentityLinker) Resolve(ctx context.Context, profile *providers.Profile) (*models.User, error) {
	if profile.ProviderID == "" {
		return nil, fmt.Errorf("%w: provider profile missing subject id", models.ErrBadRequest)
	}

	user, err := l.users.GetByProvider(ctx, profile.Provider, profile.ProviderID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if profile.Email != "" {
		user, err = l.users.GetByEmail(ctx, profile.Email)
		if err == nil {
			linked, err := l.users.UpdateProviderLink(ctx, user.ID, profile.Provider, profile.ProviderID, profile.AvatarURL)
			if err != nil {
				return nil, err
			}
			l.logger.Info("linked federated identity to existing account",
				slog.String("user_id", linked.ID),
				slog.String("provider", profile.Provider))
			return linked, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	created, err := l.createFromProfile(ctx, profile)
	if err == nil {
		return created, nil
	}
	if errors.Is(err, models.ErrConflict) {
		// Lost a race against a concurrent callback for the same identity.
		return l.users.GetByProvider(ctx, profile.Provider, profile.ProviderID)
	}
	return nil, err
}

func (l *IdentityLinker) createFromProfile(ctx context.Context, profile *providers.Profile) (*models.User, error) {
	email := profile.Email
	if email == "" {
		// Some providers withhold the email entirely. Synthesize a stable,
		// undeliverable address so the row still satisfies the email schema.
		email = fmt.Sprintf("%s.%s@login.invalid", profile.Provider, profile.ProviderID)
	}

	firstName, lastName := splitDisplayName(profile.DisplayName)

	user := &models.User{
		Email:         email,
		FirstName:     firstName,
		LastName:      lastName,
		AuthProvider:  profile.Provider,
		ProviderID:    profile.ProviderID,
		AvatarURL:     profile.AvatarURL,
		EmailVerified: true, // the provider already verified ownership
	}

	created, err := l.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	l.logger.Info("created account from federated identity",
		slog.String("user_id", created.ID),
		slog.String("provider", profile.Provider),
		slog.String("email", pkglogger.SanitizedEmail(created.Email)))

	return created, nil
}

func splitDisplayName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
