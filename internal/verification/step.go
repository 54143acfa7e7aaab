// Package verification drives an account from sign-up to a completed profile.
// The current step is always derived from the identity account and the
// profile row; nothing the client holds is trusted.
package verification

import (
	"fmt"

	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/profile"
)

// Step is a position in the account verification workflow. Steps are ordered.
type Step int

const (
	StepUnauthenticated Step = iota
	StepEmailPending
	StepPasswordUnset
	StepPhonePending
	StepProfileIncomplete
	StepComplete
)

var stepNames = [...]string{
	StepUnauthenticated:   "unauthenticated",
	StepEmailPending:      "email_pending",
	StepPasswordUnset:     "password_unset",
	StepPhonePending:      "phone_pending",
	StepProfileIncomplete: "profile_incomplete",
	StepComplete:          "complete",
}

// Pages the presentation layer sends the user to for each step
var stepRedirects = [...]string{
	StepUnauthenticated:   "/login",
	StepEmailPending:      "/auth/check-email",
	StepPasswordUnset:     "/auth/set-password",
	StepPhonePending:      "/auth/verify-phone",
	StepProfileIncomplete: "/profile/complete",
	StepComplete:          "/dashboard",
}

func (s Step) valid() bool {
	return s >= StepUnauthenticated && s <= StepComplete
}

func (s Step) String() string {
	if !s.valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Redirect returns the page that handles the step
func (s Step) Redirect() string {
	if !s.valid() {
		return stepRedirects[StepUnauthenticated]
	}
	return stepRedirects[s]
}

// AtLeast reports whether s is other or a later step
func (s Step) AtLeast(other Step) bool {
	return s >= other
}

func (s Step) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid step %d", int(s))
	}
	return []byte(stepNames[s]), nil
}

func (s *Step) UnmarshalText(text []byte) error {
	step, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// ParseStep returns the step with the given name
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return StepUnauthenticated, fmt.Errorf("unknown step %q", name)
}

// StepResult is the step of an account and where to send the user
type StepResult struct {
	Step     Step   `json:"step"`
	Redirect string `json:"redirect"`
}

func resultFor(step Step) StepResult {
	return StepResult{Step: step, Redirect: step.Redirect()}
}

// DetermineStep derives the workflow step from the identity account and the
// profile. A nil account is unauthenticated and a nil profile counts as empty.
func DetermineStep(account *identity.Account, prof *profile.Profile) Step {
	switch {
	case account == nil:
		return StepUnauthenticated
	case !account.EmailConfirmed:
		return StepEmailPending
	case !account.PasswordSet():
		return StepPasswordUnset
	case prof == nil || !prof.HasPhone():
		return StepPhonePending
	case !prof.DetailsComplete():
		return StepProfileIncomplete
	default:
		return StepComplete
	}
}
