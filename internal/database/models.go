package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the identity provider's record of a person
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID                    uuid.UUID      `bun:"id,pk,type:uuid"`
	Email                 string         `bun:"email,notnull,unique"`
	PasswordHash          string         `bun:"password_hash,notnull"`
	EmailConfirmed        bool           `bun:"email_confirmed,notnull,default:false"`
	ConfirmationTokenHash string         `bun:"confirmation_token_hash,nullzero"`
	ConfirmationSentAt    *time.Time     `bun:"confirmation_sent_at"`
	ConfirmedAt           *time.Time     `bun:"confirmed_at"`
	Metadata              map[string]any `bun:"metadata,type:jsonb,notnull,default:'{}'"`
	CreatedAt             time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt             time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

// Profile holds the personal details of an account. Empty strings are stored
// as NULL so the unique phone constraint only applies to claimed numbers.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID                 int64      `bun:"id,pk,autoincrement"`
	AccountID          uuid.UUID  `bun:"account_id,type:uuid,nullzero,unique"`
	DisplayName        string     `bun:"display_name,nullzero"`
	Nickname           string     `bun:"nickname,nullzero"`
	Gender             string     `bun:"gender,nullzero"`
	DateOfBirth        *time.Time `bun:"date_of_birth,type:date"`
	Nationality        string     `bun:"nationality,nullzero"`
	CountryOfResidence string     `bun:"country_of_residence,nullzero"`
	City               string     `bun:"city,nullzero"`
	Canton             string     `bun:"canton,nullzero"`
	ZipCode            string     `bun:"zip_code,nullzero"`
	ResidencyStatus    string     `bun:"residency_status,nullzero"`
	Phone              string     `bun:"phone,nullzero,unique"`
	AvatarKey          string     `bun:"avatar_key,nullzero"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// RefreshToken is a hashed refresh token used by the postgres refresh store
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rt"`

	ID        int64      `bun:"id,pk,autoincrement"`
	AccountID uuid.UUID  `bun:"account_id,type:uuid,notnull"`
	TokenHash string     `bun:"token_hash,notnull,unique"`
	ExpiresAt time.Time  `bun:"expires_at,notnull"`
	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	RevokedAt *time.Time `bun:"revoked_at"`
}
