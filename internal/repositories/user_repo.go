package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tobiasgrant/storefront/internal/database"
	"github.com/tobiasgrant/storefront/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, email, password_hash, first_name, last_name, phone,
	auth_provider, provider_id, avatar_url, email_verified,
	created_at, updated_at`

func scanUserRow(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.AuthProvider,
		&user.ProviderID,
		&user.AvatarURL,
		&user.EmailVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (
			email, password_hash, first_name, last_name, phone,
			auth_provider, provider_id, avatar_url, email_verified
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING` + userColumns

	row := r.db.Pool.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.AuthProvider,
		user.ProviderID,
		user.AvatarURL,
		user.EmailVerified,
	)

	created, err := scanUserRow(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByEmail matches case-insensitively; the unique index on LOWER(email)
// guarantees at most one row.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE auth_provider = $1 AND provider_id = $2`

	user, err := scanUserRow(r.db.Pool.QueryRow(ctx, query, provider, providerID))
	if err != nil {
		return nil, fmt.Errorf("get user by provider: %w", err)
	}
	return user, nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", database.MapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateProviderLink attaches a federated identity to an existing account
// and widens it so either credential path signs in to the same user.
func (r *UserRepository) UpdateProviderLink(ctx context.Context, id string, provider, providerID, avatarURL string) (*models.User, error) {
	query := `
		UPDATE users
		SET auth_provider = $2,
		    provider_id = $3,
		    avatar_url = COALESCE(NULLIF($4, ''), avatar_url),
		    email_verified = TRUE,
		    updated_at = now()
		WHERE id = $1
		RETURNING` + userColumns

	user, err := scanUserRow(r.db.Pool.QueryRow(ctx, query, id, provider, providerID, avatarURL))
	if err != nil {
		return nil, fmt.Errorf("update provider link: %w", err)
	}
	return user, nil
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET email_verified = TRUE, updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", database.MapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", database.MapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
