package profile

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ukrch/platform/internal/database"
)

// NewID marks a profile that has not been inserted yet
const NewID = "new"

type Profile struct {
	ID                 string     `json:"id"`
	AccountID          uuid.UUID  `json:"account_id"`
	DisplayName        string     `json:"display_name,omitempty"`
	Nickname           string     `json:"nickname,omitempty"`
	Gender             string     `json:"gender,omitempty"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	Nationality        string     `json:"nationality,omitempty"`
	CountryOfResidence string     `json:"country_of_residence,omitempty"`
	City               string     `json:"city,omitempty"`
	Canton             string     `json:"canton,omitempty"`
	ZipCode            string     `json:"zip_code,omitempty"`
	ResidencyStatus    string     `json:"residency_status,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	AvatarKey          string     `json:"avatar_key,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Empty returns the in-memory profile of an account before its row exists
func Empty(accountID uuid.UUID) *Profile {
	return &Profile{ID: NewID, AccountID: accountID}
}

// Persisted reports whether the profile has a stored row
func (p *Profile) Persisted() bool {
	return p.ID != "" && p.ID != NewID
}

// HasPhone reports whether a verified phone number is bound to the profile
func (p *Profile) HasPhone() bool {
	return p.Phone != ""
}

// MissingRequired lists the required detail columns that are still empty
func (p *Profile) MissingRequired() []string {
	var missing []string
	if p.Gender == "" {
		missing = append(missing, FieldGender)
	}
	if p.DateOfBirth == nil {
		missing = append(missing, FieldDateOfBirth)
	}
	if p.Nationality == "" {
		missing = append(missing, FieldNationality)
	}
	if p.CountryOfResidence == "" {
		missing = append(missing, FieldCountryOfResidence)
	}
	if p.City == "" {
		missing = append(missing, FieldCity)
	}
	return missing
}

// DetailsComplete reports whether every required detail is present
func (p *Profile) DetailsComplete() bool {
	return len(p.MissingRequired()) == 0
}

func fromRow(row *database.Profile) *Profile {
	return &Profile{
		ID:                 strconv.FormatInt(row.ID, 10),
		AccountID:          row.AccountID,
		DisplayName:        row.DisplayName,
		Nickname:           row.Nickname,
		Gender:             row.Gender,
		DateOfBirth:        row.DateOfBirth,
		Nationality:        row.Nationality,
		CountryOfResidence: row.CountryOfResidence,
		City:               row.City,
		Canton:             row.Canton,
		ZipCode:            row.ZipCode,
		ResidencyStatus:    row.ResidencyStatus,
		Phone:              row.Phone,
		AvatarKey:          row.AvatarKey,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}
