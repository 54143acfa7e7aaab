package verification

import (
	"time"

	"github.com/segmentio/ksuid"
)

// Metadata keys of the live verification attempt
const (
	MetaPendingPhone   = "pending_phone"
	MetaPendingOTPHash = "pending_otp_hash"
	MetaOTPIssuedAt    = "otp_issued_at"
	MetaOTPAttemptID   = "otp_attempt_id"

	// MetaPhoneVerifiedAt is stamped when a phone is bound to the profile
	MetaPhoneVerifiedAt = "phone_verified_at"
)

const (
	// CodeTTL is how long a code can be verified after issuance
	CodeTTL = 10 * time.Minute
	// ResendCooldown is the minimum time between two codes for one account
	ResendCooldown = 60 * time.Second
)

// Attempt is a pending phone verification. At most one exists per account;
// it lives in the account metadata until verified, expired or replaced.
type Attempt struct {
	ID       string
	Phone    string
	CodeHash string
	IssuedAt time.Time
}

func newAttempt(phone, code string, now time.Time) Attempt {
	return Attempt{
		ID:       ksuid.New().String(),
		Phone:    phone,
		CodeHash: hashCode(code),
		IssuedAt: now.UTC(),
	}
}

func (a Attempt) ExpiresAt() time.Time {
	return a.IssuedAt.Add(CodeTTL)
}

// Expired reports whether more than CodeTTL has elapsed at now. A code is
// still accepted at exactly CodeTTL.
func (a Attempt) Expired(now time.Time) bool {
	return now.Sub(a.IssuedAt) > CodeTTL
}

func (a Attempt) ResendAvailableAt() time.Time {
	return a.IssuedAt.Add(ResendCooldown)
}

// Matches compares code against the stored hash in constant time
func (a Attempt) Matches(code string) bool {
	return codeMatchesHash(code, a.CodeHash)
}

// metadata returns the patch that stores the attempt, replacing any previous one
func (a Attempt) metadata() map[string]any {
	return map[string]any{
		MetaPendingPhone:   a.Phone,
		MetaPendingOTPHash: a.CodeHash,
		MetaOTPIssuedAt:    a.IssuedAt.Format(time.RFC3339Nano),
		MetaOTPAttemptID:   a.ID,
	}
}

// attemptFromMetadata decodes the live attempt. Partial or malformed entries
// count as no attempt.
func attemptFromMetadata(meta map[string]any) (Attempt, bool) {
	phone, _ := meta[MetaPendingPhone].(string)
	hash, _ := meta[MetaPendingOTPHash].(string)
	issued, _ := meta[MetaOTPIssuedAt].(string)
	if phone == "" || hash == "" || issued == "" {
		return Attempt{}, false
	}

	issuedAt, err := time.Parse(time.RFC3339Nano, issued)
	if err != nil {
		return Attempt{}, false
	}

	id, _ := meta[MetaOTPAttemptID].(string)
	return Attempt{ID: id, Phone: phone, CodeHash: hash, IssuedAt: issuedAt}, true
}

// clearAttemptPatch removes every attempt key from the metadata
func clearAttemptPatch() map[string]any {
	return map[string]any{
		MetaPendingPhone:   nil,
		MetaPendingOTPHash: nil,
		MetaOTPIssuedAt:    nil,
		MetaOTPAttemptID:   nil,
	}
}
