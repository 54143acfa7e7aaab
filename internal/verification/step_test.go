package verification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/profile"
)

func TestDetermineStep(t *testing.T) {
	dob := time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC)
	complete := &profile.Profile{
		ID: "1", Phone: swissMobile,
		Gender: "male", DateOfBirth: &dob, Nationality: "UA", CountryOfResidence: "CH", City: "Bern",
	}
	account := func(confirmed, passwordSet bool) *identity.Account {
		return &identity.Account{EmailConfirmed: confirmed, Metadata: map[string]any{identity.MetaPasswordSet: passwordSet}}
	}

	tests := []struct {
		name    string
		account *identity.Account
		profile *profile.Profile
		want    Step
	}{
		{"no session", nil, nil, StepUnauthenticated},
		{"unconfirmed email", account(false, true), complete, StepEmailPending},
		{"placeholder password", account(true, false), complete, StepPasswordUnset},
		{"no profile row", account(true, true), nil, StepPhonePending},
		{"unsaved profile", account(true, true), profile.Empty([16]byte{1}), StepPhonePending},
		{"phone bound", account(true, true), &profile.Profile{ID: "1", Phone: swissMobile}, StepProfileIncomplete},
		{"complete", account(true, true), complete, StepComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineStep(tt.account, tt.profile))
			assert.Equal(t, tt.want, DetermineStep(tt.account, tt.profile), "same input gives the same step")
		})
	}
}

func TestStep_DetailsWithoutPhoneStillPhonePending(t *testing.T) {
	dob := time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC)
	p := &profile.Profile{ID: "1", Gender: "male", DateOfBirth: &dob, Nationality: "UA", CountryOfResidence: "CH", City: "Bern"}
	a := &identity.Account{EmailConfirmed: true, Metadata: map[string]any{identity.MetaPasswordSet: true}}

	assert.Equal(t, StepPhonePending, DetermineStep(a, p))
}

func TestStep_Ordering(t *testing.T) {
	assert.True(t, StepComplete.AtLeast(StepPhonePending))
	assert.True(t, StepPhonePending.AtLeast(StepPhonePending))
	assert.False(t, StepEmailPending.AtLeast(StepPasswordUnset))
}

func TestStep_TextRoundTrip(t *testing.T) {
	raw, err := json.Marshal(StepResult{Step: StepProfileIncomplete, Redirect: StepProfileIncomplete.Redirect()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":"profile_incomplete","redirect":"/profile/complete"}`, string(raw))

	var decoded StepResult
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, StepProfileIncomplete, decoded.Step)

	_, err = ParseStep("verified")
	assert.Error(t, err)

	_, err = Step(42).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "/login", Step(42).Redirect())
	assert.Equal(t, "step(42)", Step(42).String())
}
