package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submittedAt = time.Date(2026, time.October, 14, 12, 30, 0, 0, time.UTC)

func validDetails() Details {
	return Details{
		DisplayName:        "Olena K.",
		Gender:             "Female",
		DateOfBirth:        "1990-05-01",
		Nationality:        "ua",
		CountryOfResidence: "ch",
		City:               "Zürich",
		Canton:             "zh",
		ZipCode:            "8001",
		ResidencyStatus:    "S",
	}
}

func TestDetailsValidate_Normalizes(t *testing.T) {
	fields, err := validDetails().Validate(submittedAt)
	require.NoError(t, err)

	assert.Equal(t, "female", fields[FieldGender])
	assert.Equal(t, "UA", fields[FieldNationality])
	assert.Equal(t, "CH", fields[FieldCountryOfResidence])
	assert.Equal(t, "ZH", fields[FieldCanton])
	assert.Equal(t, time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC), fields[FieldDateOfBirth])
}

func TestDetailsValidate_AgeBoundary(t *testing.T) {
	d := validDetails()

	d.DateOfBirth = "2012-10-14"
	_, err := d.Validate(submittedAt)
	assert.NoError(t, err, "exactly fourteen years is accepted")

	d.DateOfBirth = "2012-10-15"
	_, err = d.Validate(submittedAt)
	assert.ErrorIs(t, err, ErrUnderage, "one day short of fourteen years is rejected")

	d.DateOfBirth = "2030-01-01"
	_, err = d.Validate(submittedAt)
	assert.ErrorIs(t, err, ErrUnderage)
}

func TestOldEnough_LeapDay(t *testing.T) {
	dob := time.Date(2012, time.February, 29, 0, 0, 0, 0, time.UTC)
	assert.False(t, OldEnough(dob, time.Date(2026, time.February, 28, 23, 0, 0, 0, time.UTC)))
	assert.True(t, OldEnough(dob, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDetailsValidate_MissingFields(t *testing.T) {
	_, err := Details{Gender: "male", City: "  "}.Validate(submittedAt)
	require.ErrorIs(t, err, ErrMissingFields)

	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{FieldDateOfBirth, FieldNationality, FieldCountryOfResidence, FieldCity}, missing.Fields)
}

func TestDetailsValidate_InvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Details)
		field string
	}{
		{"gender", func(d *Details) { d.Gender = "unknown" }, FieldGender},
		{"date format", func(d *Details) { d.DateOfBirth = "01.05.1990" }, FieldDateOfBirth},
		{"nationality", func(d *Details) { d.Nationality = "Ukraine" }, FieldNationality},
		{"canton", func(d *Details) { d.Canton = "XX" }, FieldCanton},
		{"residency", func(d *Details) { d.ResidencyStatus = "G" }, FieldResidencyStatus},
		{"swiss zip", func(d *Details) { d.ZipCode = "80011" }, FieldZipCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDetails()
			tt.edit(&d)

			_, err := d.Validate(submittedAt)
			require.ErrorIs(t, err, ErrInvalidField)

			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}
}

func TestDetailsValidate_ZipOutsideSwitzerland(t *testing.T) {
	d := validDetails()
	d.CountryOfResidence = "DE"
	d.Canton = ""
	d.ZipCode = "10115"

	_, err := d.Validate(submittedAt)
	assert.NoError(t, err)
}

func TestProfile_MissingRequired(t *testing.T) {
	p := Empty([16]byte{1})
	assert.False(t, p.Persisted())
	assert.False(t, p.HasPhone())
	assert.Len(t, p.MissingRequired(), 5)

	dob := time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)
	p.ID = "3"
	p.Gender, p.DateOfBirth, p.Nationality, p.CountryOfResidence, p.City = "other", &dob, "UA", "CH", "Bern"
	assert.True(t, p.Persisted())
	assert.True(t, p.DetailsComplete())
}
