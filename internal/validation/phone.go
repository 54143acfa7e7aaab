package validation

import (
	"errors"
	"fmt"
	"strings"
)

const (
	minNationalDigits = 7
	maxNationalDigits = 12
)

var (
	ErrInvalidFormat      = errors.New("phone number must start with + and contain only digits")
	ErrUnsupportedCountry = errors.New("phone numbers from this country are not supported")
	ErrInvalidLength      = fmt.Errorf("phone number must have %d to %d digits after the country code", minNationalDigits, maxNationalDigits)

	// ErrBlockedCountry is a specific UnsupportedCountry outcome; callers offer
	// alternate countries or account deletion when they see it.
	ErrBlockedCountry = fmt.Errorf("%w: calling code +%s is blocked", ErrUnsupportedCountry, blockedCallingCode)
)

// Phone is a validated phone number
type Phone struct {
	E164    string  `json:"e164"`
	Country Country `json:"country"`
}

// NormalizePhone strips spaces, dashes, dots and parentheses and rewrites a
// leading international 00 prefix to +. It performs no validation.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.TrimSpace(raw) {
		switch r {
		case ' ', '-', '.', '(', ')', '\t':
			continue
		}
		b.WriteRune(r)
	}

	s := b.String()
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	return s
}

// ValidatePhone validates a raw phone number against the country rules.
// The blocked calling code is checked first and wins over the allow-list.
func ValidatePhone(raw string) (Phone, error) {
	s := NormalizePhone(raw)

	if !strings.HasPrefix(s, "+") {
		return Phone{}, ErrUnsupportedCountry
	}
	digits := s[1:]
	if digits == "" || !isDigits(digits) {
		return Phone{}, ErrInvalidFormat
	}

	if strings.HasPrefix(digits, blockedCallingCode) {
		return Phone{}, ErrBlockedCountry
	}

	for _, c := range byPrefixLength {
		if !strings.HasPrefix(digits, c.CallingCode) {
			continue
		}
		national := len(digits) - len(c.CallingCode)
		if national < minNationalDigits || national > maxNationalDigits {
			return Phone{}, ErrInvalidLength
		}
		return Phone{E164: s, Country: c}, nil
	}

	return Phone{}, ErrUnsupportedCountry
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
