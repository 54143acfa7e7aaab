package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPassword_StrengthBands(t *testing.T) {
	tests := []struct {
		password string
		want     Strength
	}{
		{"Abcdef1!", StrengthWeak},        // 8
		{"Abcdefg1!", StrengthWeak},       // 9
		{"Abcdefgh1!", StrengthMedium},    // 10
		{"Abcdefghi1!", StrengthMedium},   // 11
		{"Abcdefghij1!", StrengthStrong},  // 12
		{"Пароль-Надійний1", StrengthStrong},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			check := CheckPassword(tt.password)
			assert.True(t, check.Valid)
			assert.Equal(t, tt.want, check.Strength)
			assert.Empty(t, check.Unmet())
		})
	}
}

func TestCheckPassword_AnyMissingRequirementIsInvalid(t *testing.T) {
	tests := []struct {
		password string
		unmet    string
	}{
		{"Abc1!", RequirementMinLength},
		{"Abcdefghijkl!", RequirementDigit},
		{"Abcdefghijkl1", RequirementSymbol},
		{"abcdefghijkl1!", RequirementUpper},
		{"ABCDEFGHIJKL1!", RequirementLower},
	}

	for _, tt := range tests {
		t.Run(tt.unmet, func(t *testing.T) {
			check := CheckPassword(tt.password)
			assert.False(t, check.Valid)
			assert.Equal(t, StrengthNone, check.Strength)
			assert.Equal(t, []string{tt.unmet}, check.Unmet())
			assert.Len(t, check.Requirements, 5)
		})
	}
}

func TestCheckPassword_EmptyReportsEveryRequirement(t *testing.T) {
	check := CheckPassword("")
	assert.False(t, check.Valid)
	assert.Len(t, check.Unmet(), 5)
}

func TestCheckPassword_SpaceIsNotASymbol(t *testing.T) {
	check := CheckPassword("Abcdefgh 12")
	assert.False(t, check.Valid)
	assert.Equal(t, []string{RequirementSymbol}, check.Unmet())
}
