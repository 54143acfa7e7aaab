package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/ukrch/platform/internal/config"
)

// RefreshTokenStore defines the interface for refresh token storage
type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAllAccountTokens(ctx context.Context, accountID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context) error
}

// NewRefreshTokenStore returns the store selected by REFRESH_TOKEN_STORE
func NewRefreshTokenStore(kind string, client *redis.Client, db *bun.DB) (RefreshTokenStore, error) {
	switch kind {
	case config.RefreshStoreRedis:
		return NewRedisRefreshStore(client), nil
	case config.RefreshStorePostgres:
		return NewPostgresRefreshStore(db), nil
	default:
		return nil, fmt.Errorf("unknown refresh token store %q", kind)
	}
}
