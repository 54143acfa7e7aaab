package identity

import (
	"time"

	"github.com/google/uuid"
)

// Metadata keys owned by the identity provider
const (
	MetaPasswordSet   = "password_set"
	MetaPasswordSetAt = "password_set_at"
)

// Account is an identity record with its free-form metadata
type Account struct {
	ID                    uuid.UUID      `json:"id"`
	Email                 string         `json:"email"`
	PasswordHash          string         `json:"-"`
	EmailConfirmed        bool           `json:"email_confirmed"`
	ConfirmationTokenHash string         `json:"-"`
	ConfirmationSentAt    *time.Time     `json:"-"`
	ConfirmedAt           *time.Time     `json:"confirmed_at,omitempty"`
	Metadata              map[string]any `json:"metadata"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// PasswordSet reports whether the user chose a password
func (a *Account) PasswordSet() bool {
	v, _ := a.Metadata[MetaPasswordSet].(bool)
	return v
}

// Session is the token pair handed to a signed-in client
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	AccountID    uuid.UUID `json:"account_id"`
}

// RefreshToken is the stored form of a refresh token
type RefreshToken struct {
	AccountID uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *RefreshToken) IsValid() bool {
	return !t.IsRevoked() && !t.IsExpired()
}
