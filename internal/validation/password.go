package validation

import (
	"unicode"
	"unicode/utf8"
)

const minPasswordLength = 8

// Requirement identifiers reported by CheckPassword
const (
	RequirementMinLength = "min_length"
	RequirementDigit     = "digit"
	RequirementSymbol    = "symbol"
	RequirementUpper     = "uppercase"
	RequirementLower     = "lowercase"
)

// Strength of a valid password
type Strength string

const (
	StrengthNone   Strength = ""
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

type Requirement struct {
	ID  string `json:"id"`
	Met bool   `json:"met"`
}

// PasswordCheck is the full evaluation of a candidate password
type PasswordCheck struct {
	Valid        bool          `json:"valid"`
	Strength     Strength      `json:"strength,omitempty"`
	Requirements []Requirement `json:"requirements"`
}

// Unmet returns the identifiers of requirements that are not satisfied
func (c PasswordCheck) Unmet() []string {
	var out []string
	for _, r := range c.Requirements {
		if !r.Met {
			out = append(out, r.ID)
		}
	}
	return out
}

// CheckPassword evaluates the five password requirements independently.
// Strength is only derived when every requirement is met.
func CheckPassword(password string) PasswordCheck {
	var hasDigit, hasSymbol, hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsLetter(r), unicode.IsSpace(r):
		default:
			hasSymbol = true
		}
	}

	length := utf8.RuneCountInString(password)
	check := PasswordCheck{
		Requirements: []Requirement{
			{ID: RequirementMinLength, Met: length >= minPasswordLength},
			{ID: RequirementDigit, Met: hasDigit},
			{ID: RequirementSymbol, Met: hasSymbol},
			{ID: RequirementUpper, Met: hasUpper},
			{ID: RequirementLower, Met: hasLower},
		},
	}

	check.Valid = true
	for _, r := range check.Requirements {
		if !r.Met {
			check.Valid = false
		}
	}
	if !check.Valid {
		return check
	}

	switch {
	case length >= 12:
		check.Strength = StrengthStrong
	case length >= 10:
		check.Strength = StrengthMedium
	default:
		check.Strength = StrengthWeak
	}
	return check
}
