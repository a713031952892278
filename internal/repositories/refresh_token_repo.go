package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tobiasgrant/storefront/internal/database"
	"github.com/tobiasgrant/storefront/internal/models"
)

type RefreshTokenRepository struct {
	db *database.DB
}

func NewRefreshTokenRepository(db *database.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

const refreshTokenColumns = `
	id, user_id, token_hash, expires_at, revoked_at, created_at`

func scanRefreshTokenRow(row pgx.Row) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &token, nil
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.Pool.QueryRow(ctx, query, token.UserID, token.TokenHash, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", database.MapPostgresError(err))
	}
	return nil
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `SELECT` + refreshTokenColumns + ` FROM refresh_tokens WHERE token_hash = $1`

	token, err := scanRefreshTokenRow(r.db.Pool.QueryRow(ctx, query, tokenHash))
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return token, nil
}

// RevokeByHash marks a token spent. The WHERE clause makes the revocation
// conditional on the token still being live, so two concurrent calls can
// never both succeed: the loser sees zero rows and gets ErrNotFound.
func (r *RefreshTokenRepository) RevokeByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = now()
		WHERE token_hash = $1
		  AND revoked_at IS NULL
		  AND expires_at > now()
		RETURNING` + refreshTokenColumns

	token, err := scanRefreshTokenRow(r.db.Pool.QueryRow(ctx, query, tokenHash))
	if err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return token, nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = now()
		WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.Pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", database.MapPostgresError(err))
	}
	return nil
}

// DeleteExpired purges rows that can never validate again. Revoked rows are
// kept until expiry so reuse of a rotated token stays distinguishable in audit.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", database.MapPostgresError(err))
	}
	return tag.RowsAffected(), nil
}
