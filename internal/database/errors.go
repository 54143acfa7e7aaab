package database

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

// Unique constraint names referenced by repositories
const (
	ConstraintAccountsEmail    = "accounts_email_key"
	ConstraintProfilesPhone    = "profiles_phone_key"
	ConstraintProfilesAccount  = "profiles_account_id_key"
	ConstraintRefreshTokenHash = "refresh_tokens_token_hash_key"
)

// IsUniqueViolation reports whether err is a Postgres unique violation. When
// constraint is non-empty the violated constraint must match it.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
