package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ukrch/platform/internal/config"
)

// TokenClaims are the claims carried by an access token
type TokenClaims struct {
	AccountID string    `json:"account_id"` // UUID stored as string in token
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService defines the interface for access token creation and validation.
// Implementations are PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(accountID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// NewTokenService builds the access token service selected by configuration
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	switch cfg.TokenStrategy {
	case config.TokenStrategyPaseto:
		return NewPasetoService(cfg.PasetoKey)
	case config.TokenStrategyJWT:
		return NewJWTService(cfg.JWTSecret, cfg.JWTIssuer)
	default:
		return nil, fmt.Errorf("unknown token strategy %q", cfg.TokenStrategy)
	}
}
