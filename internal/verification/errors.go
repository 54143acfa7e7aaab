package verification

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnauthorized     = errors.New("no account for the current session")
	ErrStepNotReached   = errors.New("account has not reached the required step")
	ErrNoPendingAttempt = errors.New("no verification code has been requested")
	ErrPhoneMismatch    = errors.New("phone number differs from the one the code was sent to")
	ErrCodeMismatch     = errors.New("verification code is incorrect")
	ErrExpired          = errors.New("verification code has expired")
	ErrPhoneInUse       = errors.New("phone number is already used by another account")
	ErrResendTooSoon    = errors.New("a code was requested too recently")
	ErrSMSUnavailable   = errors.New("sms delivery is unavailable")
)

// StepError reports an operation attempted before the account reached its step
type StepError struct {
	Required Step
	Current  Step
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: requires %s, account is at %s", ErrStepNotReached, e.Required, e.Current)
}

func (e *StepError) Unwrap() error { return ErrStepNotReached }

// CooldownError reports how long to wait before a new code can be sent
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: retry in %s", ErrResendTooSoon, e.RetryAfter.Round(time.Second))
}

func (e *CooldownError) Unwrap() error { return ErrResendTooSoon }

// RetryAfterSeconds rounds the wait up to whole seconds
func (e *CooldownError) RetryAfterSeconds() int {
	secs := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}
