package identity

import (
	"errors"
	"strings"

	"github.com/ukrch/platform/internal/validation"
)

var (
	ErrAccountNotFound          = errors.New("account not found")
	ErrEmailExists              = errors.New("email already exists")
	ErrEmailRequired            = errors.New("email is required")
	ErrInvalidEmailFormat       = errors.New("invalid email format")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrEmailNotConfirmed        = errors.New("email not confirmed, please check your inbox")
	ErrInvalidConfirmationToken = errors.New("invalid confirmation token")
	ErrConfirmationExpired      = errors.New("confirmation token has expired")
	ErrAlreadyConfirmed         = errors.New("email already confirmed")
	ErrWeakPassword             = errors.New("password does not meet the requirements")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token has been revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token has expired")
	ErrResetTokenNotFound   = errors.New("password reset token not found or expired")

	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// WeakPasswordError carries the requirement evaluation of a rejected password
type WeakPasswordError struct {
	Check validation.PasswordCheck
}

func (e *WeakPasswordError) Error() string {
	return ErrWeakPassword.Error() + ": " + strings.Join(e.Check.Unmet(), ", ")
}

func (e *WeakPasswordError) Unwrap() error { return ErrWeakPassword }

// CheckPassword returns a *WeakPasswordError unless password is valid
func CheckPassword(password string) error {
	check := validation.CheckPassword(password)
	if !check.Valid {
		return &WeakPasswordError{Check: check}
	}
	return nil
}
