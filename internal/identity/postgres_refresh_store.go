package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/ukrch/platform/internal/database"
)

// PostgresRefreshStore keeps hashed refresh tokens in the refresh_tokens table
type PostgresRefreshStore struct {
	db *bun.DB
}

func NewPostgresRefreshStore(db *bun.DB) *PostgresRefreshStore {
	return &PostgresRefreshStore{db: db}
}

// StoreRefreshToken stores a refresh token in the database
func (r *PostgresRefreshStore) StoreRefreshToken(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) error {
	row := &database.RefreshToken{
		AccountID: accountID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
	}

	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// GetRefreshToken retrieves a refresh token by its hash
func (r *PostgresRefreshStore) GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	row := new(database.RefreshToken)
	err := r.db.NewSelect().
		Model(row).
		Where("token_hash = ?", hashToken(token)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	rt := &RefreshToken{
		AccountID: row.AccountID,
		TokenHash: row.TokenHash,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
		RevokedAt: row.RevokedAt,
	}
	if rt.IsRevoked() {
		return nil, ErrRefreshTokenRevoked
	}
	if rt.IsExpired() {
		return nil, ErrRefreshTokenExpired
	}

	return rt, nil
}

// RevokeRefreshToken marks a refresh token as revoked
func (r *PostgresRefreshStore) RevokeRefreshToken(ctx context.Context, token string) error {
	result, err := r.db.NewUpdate().
		Model((*database.RefreshToken)(nil)).
		Set("revoked_at = NOW()").
		Where("token_hash = ?", hashToken(token)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRefreshTokenNotFound
	}

	return nil
}

// RevokeAllAccountTokens revokes all live refresh tokens of an account
func (r *PostgresRefreshStore) RevokeAllAccountTokens(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*database.RefreshToken)(nil)).
		Set("revoked_at = NOW()").
		Where("account_id = ?", accountID).
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke account tokens: %w", err)
	}

	return nil
}

// CleanupExpiredTokens removes expired tokens; run it from the admin CLI or a cron job
func (r *PostgresRefreshStore) CleanupExpiredTokens(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*database.RefreshToken)(nil)).
		Where("expires_at < NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	return nil
}
