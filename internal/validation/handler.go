package validation

import (
	"errors"
	"net/http"

	"github.com/ukrch/platform/internal/httputil"
	"github.com/ukrch/platform/internal/i18n"
)

// Handler serves stateless validator feedback for sign-up and phone forms
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

type PasswordRequest struct {
	Password string `json:"password"`
}

type PhoneRequest struct {
	Phone string `json:"phone"`
}

// PhoneResponse reports the validation of a phone number. Code and Message
// are set when the number is rejected.
type PhoneResponse struct {
	Valid              bool      `json:"valid"`
	E164               string    `json:"e164,omitempty"`
	Country            *Country  `json:"country,omitempty"`
	Code               string    `json:"code,omitempty"`
	Message            string    `json:"message,omitempty"`
	AlternateCountries []Country `json:"alternate_countries,omitempty"`
}

type CountriesResponse struct {
	Countries []Country `json:"countries"`
}

// CheckPasswordQuery evaluates the password given in the query string
// @Summary      Check password requirements
// @Tags         validation
// @Produce      json
// @Param        password query string true "Password to check"
// @Success      200 {object} PasswordCheck
// @Router       /validation/password [get]
func (h *Handler) CheckPasswordQuery(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, CheckPassword(r.URL.Query().Get("password")), http.StatusOK)
}

// CheckPasswordBody evaluates the password in the request body
// @Summary      Check password requirements
// @Description  Same as the GET variant, keeps the password out of access logs
// @Tags         validation
// @Accept       json
// @Produce      json
// @Param        request body PasswordRequest true "Password to check"
// @Success      200 {object} PasswordCheck
// @Failure      400 {object} httputil.ErrorResponse "Invalid body"
// @Router       /validation/password [post]
func (h *Handler) CheckPasswordBody(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondErrorWithCode(w, i18n.T(r.Context(), i18n.MsgInvalidBody), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	httputil.RespondJSON(w, CheckPassword(req.Password), http.StatusOK)
}

// CheckPhone validates a phone number against the country rules
// @Summary      Check phone number
// @Description  Rejected numbers are reported with valid=false and a code; blocked numbers list alternate countries
// @Tags         validation
// @Accept       json
// @Produce      json
// @Param        request body PhoneRequest true "Phone number"
// @Success      200 {object} PhoneResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid body"
// @Router       /validation/phone [post]
func (h *Handler) CheckPhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PhoneRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidBody), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	phone, err := ValidatePhone(req.Phone)
	if err == nil {
		httputil.RespondJSON(w, PhoneResponse{Valid: true, E164: phone.E164, Country: &phone.Country}, http.StatusOK)
		return
	}

	resp := PhoneResponse{}
	switch {
	case errors.Is(err, ErrBlockedCountry):
		resp.Code, resp.Message = httputil.CodeBlockedCountry, i18n.T(ctx, i18n.MsgPhoneBlocked)
		resp.AlternateCountries = AlternateCountries()
	case errors.Is(err, ErrUnsupportedCountry):
		resp.Code, resp.Message = httputil.CodeUnsupportedCountry, i18n.T(ctx, i18n.MsgPhoneUnsupported)
	case errors.Is(err, ErrInvalidLength):
		resp.Code, resp.Message = httputil.CodeInvalidPhoneLength, i18n.T(ctx, i18n.MsgPhoneLength)
	default:
		resp.Code, resp.Message = httputil.CodeInvalidPhone, i18n.T(ctx, i18n.MsgPhoneInvalid)
	}
	httputil.RespondJSON(w, resp, http.StatusOK)
}

// Countries lists the supported phone countries
// @Summary      Supported phone countries
// @Tags         validation
// @Produce      json
// @Success      200 {object} CountriesResponse
// @Router       /validation/countries [get]
func (h *Handler) Countries(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, CountriesResponse{Countries: SupportedCountries()}, http.StatusOK)
}
