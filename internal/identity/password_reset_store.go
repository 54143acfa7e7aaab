package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const passwordResetTokenTTL = 1 * time.Hour

// PasswordResetStore handles password reset token storage in Redis
type PasswordResetStore struct {
	client *redis.Client
}

func NewPasswordResetStore(client *redis.Client) *PasswordResetStore {
	return &PasswordResetStore{client: client}
}

// passwordResetKey hashes the token so raw tokens never reach Redis
func passwordResetKey(token string) string {
	return fmt.Sprintf("password_reset:%s", hashToken(token))
}

// Store saves a reset token for an account with a one hour TTL
func (r *PasswordResetStore) Store(ctx context.Context, accountID uuid.UUID, token string) error {
	if err := r.client.Set(ctx, passwordResetKey(token), accountID.String(), passwordResetTokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to store password reset token: %w", err)
	}
	return nil
}

// Get returns the account a reset token was issued to
func (r *PasswordResetStore) Get(ctx context.Context, token string) (uuid.UUID, error) {
	value, err := r.client.Get(ctx, passwordResetKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrResetTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get password reset token: %w", err)
	}

	accountID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse account ID: %w", err)
	}
	return accountID, nil
}

// Delete removes a used reset token
func (r *PasswordResetStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, passwordResetKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete password reset token: %w", err)
	}
	return nil
}
