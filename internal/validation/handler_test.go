package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_CheckPasswordQuery(t *testing.T) {
	h := NewHandler()
	req := httptest.NewRequest(http.MethodGet, "/validation/password?password="+url.QueryEscape("Bern#2026kyiv"), nil)
	rec := httptest.NewRecorder()

	h.CheckPasswordQuery(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var check PasswordCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.True(t, check.Valid)
	assert.Equal(t, StrengthStrong, check.Strength)
}

func TestHandler_CheckPasswordBody(t *testing.T) {
	h := NewHandler()
	req := httptest.NewRequest(http.MethodPost, "/validation/password", strings.NewReader(`{"password":"abc"}`))
	rec := httptest.NewRecorder()

	h.CheckPasswordBody(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var check PasswordCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.False(t, check.Valid)
	assert.Empty(t, check.Strength)
	assert.ElementsMatch(t, []string{RequirementMinLength, RequirementDigit, RequirementSymbol, RequirementUpper}, check.Unmet())

	rec = httptest.NewRecorder()
	h.CheckPasswordBody(rec, httptest.NewRequest(http.MethodPost, "/validation/password", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CheckPhone(t *testing.T) {
	tests := []struct {
		phone      string
		valid      bool
		code       string
		alternates bool
	}{
		{"+41 79 123 45 67", true, "", false},
		{"+7 912 345 67 89", false, "blocked_country", true},
		{"+1 555 123 4567", false, "unsupported_country", false},
		{"+49 123", false, "invalid_phone_length", false},
		{"+49 abc", false, "invalid_phone", false},
	}

	h := NewHandler()
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			body, _ := json.Marshal(PhoneRequest{Phone: tt.phone})
			rec := httptest.NewRecorder()
			h.CheckPhone(rec, httptest.NewRequest(http.MethodPost, "/validation/phone", strings.NewReader(string(body))))
			require.Equal(t, http.StatusOK, rec.Code)

			var resp PhoneResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.valid, resp.Valid)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.alternates, len(resp.AlternateCountries) > 0)
			if tt.valid {
				assert.Equal(t, "+41791234567", resp.E164)
				require.NotNil(t, resp.Country)
				assert.Equal(t, "CH", resp.Country.ISO)
			} else {
				assert.NotEmpty(t, resp.Message)
			}
		})
	}
}
