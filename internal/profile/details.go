package profile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Column names accepted by Repository.Update
const (
	FieldDisplayName        = "display_name"
	FieldNickname           = "nickname"
	FieldGender             = "gender"
	FieldDateOfBirth        = "date_of_birth"
	FieldNationality        = "nationality"
	FieldCountryOfResidence = "country_of_residence"
	FieldCity               = "city"
	FieldCanton             = "canton"
	FieldZipCode            = "zip_code"
	FieldResidencyStatus    = "residency_status"
	FieldPhone              = "phone"
	FieldAvatarKey          = "avatar_key"
)

// MinimumAge is the youngest age at which a profile can be completed
const MinimumAge = 14

const dateLayout = "2006-01-02"

var (
	ErrMissingFields = errors.New("required profile fields are missing")
	ErrInvalidField  = errors.New("profile field is invalid")
	ErrUnderage      = fmt.Errorf("members must be at least %d years old", MinimumAge)
)

// MissingFieldsError lists the required fields absent from a submission
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingFields, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingFields }

// FieldError describes one field that failed validation
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidField }

var (
	genders = map[string]bool{"male": true, "female": true, "other": true}

	residencyStatuses = map[string]bool{
		"S": true, "B": true, "C": true, "L": true, "F": true, "N": true,
		"citizen": true, "other": true,
	}

	cantons = map[string]bool{
		"AG": true, "AI": true, "AR": true, "BE": true, "BL": true, "BS": true,
		"FR": true, "GE": true, "GL": true, "GR": true, "JU": true, "LU": true,
		"NE": true, "NW": true, "OW": true, "SG": true, "SH": true, "SO": true,
		"SZ": true, "TG": true, "TI": true, "UR": true, "VD": true, "VS": true,
		"ZG": true, "ZH": true,
	}

	isoCountry = regexp.MustCompile(`^[A-Z]{2}$`)
	swissZip   = regexp.MustCompile(`^[1-9][0-9]{3}$`)
)

// Details is a profile completion submission
type Details struct {
	DisplayName        string `json:"display_name"`
	Nickname           string `json:"nickname"`
	Gender             string `json:"gender"`
	DateOfBirth        string `json:"date_of_birth"` // YYYY-MM-DD
	Nationality        string `json:"nationality"`
	CountryOfResidence string `json:"country_of_residence"`
	City               string `json:"city"`
	Canton             string `json:"canton"`
	ZipCode            string `json:"zip_code"`
	ResidencyStatus    string `json:"residency_status"`
}

func (d Details) normalized() Details {
	d.DisplayName = strings.TrimSpace(d.DisplayName)
	d.Nickname = strings.TrimSpace(d.Nickname)
	d.Gender = strings.ToLower(strings.TrimSpace(d.Gender))
	d.DateOfBirth = strings.TrimSpace(d.DateOfBirth)
	d.Nationality = strings.ToUpper(strings.TrimSpace(d.Nationality))
	d.CountryOfResidence = strings.ToUpper(strings.TrimSpace(d.CountryOfResidence))
	d.City = strings.TrimSpace(d.City)
	d.Canton = strings.ToUpper(strings.TrimSpace(d.Canton))
	d.ZipCode = strings.TrimSpace(d.ZipCode)
	d.ResidencyStatus = strings.TrimSpace(d.ResidencyStatus)
	return d
}

// Validate checks a submission at time now and returns the column values to store.
// The age check compares calendar dates, so a member becomes eligible on
// their fourteenth birthday.
func (d Details) Validate(now time.Time) (map[string]any, error) {
	d = d.normalized()

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{FieldGender, d.Gender},
		{FieldDateOfBirth, d.DateOfBirth},
		{FieldNationality, d.Nationality},
		{FieldCountryOfResidence, d.CountryOfResidence},
		{FieldCity, d.City},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	if !genders[d.Gender] {
		return nil, &FieldError{Field: FieldGender, Reason: "must be male, female or other"}
	}

	dob, err := time.Parse(dateLayout, d.DateOfBirth)
	if err != nil {
		return nil, &FieldError{Field: FieldDateOfBirth, Reason: "must be a date in YYYY-MM-DD format"}
	}
	if !OldEnough(dob, now) {
		return nil, ErrUnderage
	}

	if !isoCountry.MatchString(d.Nationality) {
		return nil, &FieldError{Field: FieldNationality, Reason: "must be a two-letter country code"}
	}
	if !isoCountry.MatchString(d.CountryOfResidence) {
		return nil, &FieldError{Field: FieldCountryOfResidence, Reason: "must be a two-letter country code"}
	}
	if d.Canton != "" && !cantons[d.Canton] {
		return nil, &FieldError{Field: FieldCanton, Reason: "unknown canton"}
	}
	if d.ResidencyStatus != "" && !residencyStatuses[d.ResidencyStatus] {
		return nil, &FieldError{Field: FieldResidencyStatus, Reason: "unknown residency status"}
	}
	if d.ZipCode != "" && d.CountryOfResidence == "CH" && !swissZip.MatchString(d.ZipCode) {
		return nil, &FieldError{Field: FieldZipCode, Reason: "must be a four-digit Swiss postal code"}
	}

	return map[string]any{
		FieldDisplayName:        d.DisplayName,
		FieldNickname:           d.Nickname,
		FieldGender:             d.Gender,
		FieldDateOfBirth:        dob,
		FieldNationality:        d.Nationality,
		FieldCountryOfResidence: d.CountryOfResidence,
		FieldCity:               d.City,
		FieldCanton:             d.Canton,
		FieldZipCode:            d.ZipCode,
		FieldResidencyStatus:    d.ResidencyStatus,
	}, nil
}

// OldEnough reports whether someone born on dob has reached MinimumAge on the date of now
func OldEnough(dob, now time.Time) bool {
	birth := time.Date(dob.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !birth.AddDate(MinimumAge, 0, 0).After(today)
}
