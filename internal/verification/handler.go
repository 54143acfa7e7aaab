package verification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/ukrch/platform/internal/httputil"
	"github.com/ukrch/platform/internal/i18n"
	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/logging"
	"github.com/ukrch/platform/internal/profile"
	"github.com/ukrch/platform/internal/ratelimit"
	"github.com/ukrch/platform/internal/validation"
)

// Rate limit purposes
const (
	purposeSendCode   = "send_code"
	purposeVerifyCode = "verify_code"
)

// Handler exposes the workflow over HTTP. Every route runs behind
// identity.RequireAuth.
type Handler struct {
	workflow      *Workflow
	rateLimiter   *ratelimit.Limiter
	secureCookies bool
}

func NewHandler(workflow *Workflow, rateLimiter *ratelimit.Limiter, secureCookies bool) *Handler {
	return &Handler{workflow: workflow, rateLimiter: rateLimiter, secureCookies: secureCookies}
}

// accountRequest is embedded by request bodies that may repeat the account id.
// A value different from the session is rejected.
type accountRequest struct {
	AccountID string `json:"account_id,omitempty"`
}

// SetPasswordRequest carries the chosen password
type SetPasswordRequest struct {
	accountRequest
	Password string `json:"password"`
}

// SendCodeRequest carries the phone number to verify
type SendCodeRequest struct {
	accountRequest
	Phone string `json:"phone"`
}

// VerifyCodeRequest carries the phone number and the received code
type VerifyCodeRequest struct {
	accountRequest
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// CompleteProfileRequest carries the profile details
type CompleteProfileRequest struct {
	accountRequest
	profile.Details
}

// DeleteAccountRequest optionally repeats the account id
type DeleteAccountRequest struct {
	accountRequest
}

// StepResponse reports the step of the account
type StepResponse struct {
	Success  bool   `json:"success"`
	Step     Step   `json:"step"`
	Redirect string `json:"redirect"`
	Message  string `json:"message,omitempty"`
}

// SendCodeResponse reports an issued code
type SendCodeResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Attempt *SendResult `json:"attempt"`
}

// ProfileResponse wraps the stored profile
type ProfileResponse struct {
	Success bool             `json:"success"`
	Step    Step             `json:"step"`
	Profile *profile.Profile `json:"profile"`
}

// BlockedCountryDetails lists the countries a blocked user can switch to
type BlockedCountryDetails struct {
	AlternateCountries []validation.Country `json:"alternate_countries"`
}

// GetStep returns the current step
// @Summary      Current verification step
// @Description  Derive the workflow step from the account and profile and return the page to continue on
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} StepResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /account/step [get]
func (h *Handler) GetStep(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.sessionAccount(w, r, "")
	if !ok {
		return
	}

	result, err := h.workflow.CurrentStep(r.Context(), accountID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, StepResponse{Success: true, Step: result.Step, Redirect: result.Redirect}, http.StatusOK)
}

// SetPassword stores the password chosen after email confirmation
// @Summary      Set password
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SetPasswordRequest true "New password"
// @Success      200 {object} StepResponse
// @Failure      400 {object} httputil.ErrorResponse "Weak password, details list the requirements"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized or session mismatch"
// @Failure      403 {object} httputil.ErrorResponse "Step not reached"
// @Router       /account/password [post]
func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req SetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	accountID, ok := h.sessionAccount(w, r, req.AccountID)
	if !ok {
		return
	}

	result, err := h.workflow.SetPassword(r.Context(), accountID, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondStep(w, r, result, i18n.MsgPasswordSet)
}

// SendCode texts a verification code to a phone number
// @Summary      Send phone verification code
// @Description  Validate the phone number, check it is not used by another account and send a 6-digit code valid for 10 minutes
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SendCodeRequest true "Phone number"
// @Success      200 {object} SendCodeResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid phone number"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized or session mismatch"
// @Failure      403 {object} httputil.ErrorResponse "Blocked country or step not reached"
// @Failure      409 {object} httputil.ErrorResponse "Phone number in use"
// @Failure      429 {object} httputil.ErrorResponse "Resend cooldown or rate limit"
// @Failure      503 {object} httputil.ErrorResponse "SMS unavailable"
// @Router       /account/phone/send-code [post]
func (h *Handler) SendCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SendCodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	accountID, ok := h.sessionAccount(w, r, req.AccountID)
	if !ok {
		return
	}
	if h.limited(w, r, accountID, purposeSendCode, ratelimit.RuleSendCode) {
		return
	}

	attempt, err := h.workflow.SendCode(ctx, accountID, req.Phone)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, SendCodeResponse{Success: true, Message: i18n.T(ctx, i18n.MsgCodeSent), Attempt: attempt}, http.StatusOK)
}

// VerifyCode checks a received code and binds the phone number
// @Summary      Verify phone code
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body VerifyCodeRequest true "Phone number and code"
// @Success      200 {object} StepResponse
// @Failure      400 {object} httputil.ErrorResponse "No pending code, phone mismatch, wrong or expired code"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized or session mismatch"
// @Failure      403 {object} httputil.ErrorResponse "Step not reached"
// @Failure      409 {object} httputil.ErrorResponse "Phone number in use"
// @Failure      429 {object} httputil.ErrorResponse "Rate limit"
// @Router       /account/phone/verify-code [post]
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	accountID, ok := h.sessionAccount(w, r, req.AccountID)
	if !ok {
		return
	}
	if h.limited(w, r, accountID, purposeVerifyCode, ratelimit.RuleVerifyCode) {
		return
	}

	result, err := h.workflow.VerifyCode(r.Context(), accountID, req.Phone, req.Code)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondStep(w, r, result, i18n.MsgPhoneVerified)
}

// CompleteProfile stores the profile details
// @Summary      Complete profile
// @Description  Gender, date of birth, nationality, country of residence and city are required. Members must be at least 14.
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CompleteProfileRequest true "Profile details"
// @Success      200 {object} StepResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing or invalid fields"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized or session mismatch"
// @Failure      403 {object} httputil.ErrorResponse "Underage or step not reached"
// @Router       /account/profile [put]
func (h *Handler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	var req CompleteProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	accountID, ok := h.sessionAccount(w, r, req.AccountID)
	if !ok {
		return
	}

	result, err := h.workflow.CompleteProfile(r.Context(), accountID, req.Details)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondStep(w, r, result, i18n.MsgProfileSaved)
}

// GetProfile returns the stored profile
// @Summary      Read profile
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /account/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.sessionAccount(w, r, "")
	if !ok {
		return
	}

	result, _, prof, err := h.workflow.Inspect(r.Context(), accountID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, ProfileResponse{Success: true, Step: result.Step, Profile: prof}, http.StatusOK)
}

// DeleteAccount removes the profile and the account of the session
// @Summary      Delete account
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body DeleteAccountRequest false "Optional account id"
// @Success      200 {object} httputil.SuccessResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized or session mismatch"
// @Failure      500 {object} httputil.ErrorResponse "Deletion failed"
// @Router       /account [delete]
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req DeleteAccountRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	accountID, ok := h.sessionAccount(w, r, req.AccountID)
	if !ok {
		return
	}

	if err := h.workflow.DeleteAccount(ctx, accountID); err != nil {
		h.respondError(w, r, err)
		return
	}

	identity.ClearAuthCookies(w, h.secureCookies)
	httputil.RespondJSON(w, httputil.SuccessResponse{Success: true}, http.StatusOK)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httputil.DecodeJSON(w, r, dst); err != nil {
		ctx := r.Context()
		logging.GetLoggerFromContext(ctx).Warn("invalid request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidBody), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return false
	}
	return true
}

// sessionAccount returns the account of the verified session. A claimed id
// from the request body must match it.
func (h *Handler) sessionAccount(w http.ResponseWriter, r *http.Request, claimed string) (uuid.UUID, bool) {
	ctx := r.Context()

	accountID, ok := identity.AccountIDFromContext(ctx)
	if !ok {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgMissingAuth), httputil.CodeMissingAuth, http.StatusUnauthorized)
		return uuid.Nil, false
	}

	if claimed != "" {
		claimedID, err := uuid.Parse(claimed)
		if err != nil || claimedID != accountID {
			logging.GetLoggerFromContext(ctx).Warn("request account id does not match session")
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgSessionMismatch), httputil.CodeSessionMismatch, http.StatusUnauthorized)
			return uuid.Nil, false
		}
	}

	return accountID, true
}

// limited applies an account rate limit. Limiter failures fail open.
func (h *Handler) limited(w http.ResponseWriter, r *http.Request, accountID uuid.UUID, purpose string, rule ratelimit.Rule) bool {
	ctx := r.Context()
	logger := logging.GetLoggerFromContext(ctx)

	exceeded, err := h.rateLimiter.CheckAccountRateLimit(ctx, accountID.String(), purpose, rule)
	if err != nil {
		logger.Error("failed to check account rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("account rate limit exceeded", "purpose", purpose)
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgTooManyRequests), httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordAccountRequest(ctx, accountID.String(), purpose, rule); err != nil {
		logger.Error("failed to record account request", "error", err.Error())
	}
	return false
}

func (h *Handler) respondStep(w http.ResponseWriter, r *http.Request, result StepResult, msg string) {
	httputil.RespondJSON(w, StepResponse{
		Success:  true,
		Step:     result.Step,
		Redirect: result.Redirect,
		Message:  i18n.T(r.Context(), msg),
	}, http.StatusOK)
}

// respondError maps workflow errors to status codes. Storage detail is only logged.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := logging.GetLoggerFromContext(ctx)

	var (
		stepErr     *StepError
		cooldownErr *CooldownError
		weakErr     *identity.WeakPasswordError
		missingErr  *profile.MissingFieldsError
		fieldErr    *profile.FieldError
	)

	switch {
	case errors.Is(err, ErrUnauthorized):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidToken), httputil.CodeInvalidTokenUserID, http.StatusUnauthorized)

	case errors.As(err, &stepErr):
		httputil.RespondErrorWithDetails(w, i18n.T(ctx, i18n.MsgStepNotReached), httputil.CodeStepNotReached, StepDetails{
			RequiredStep: stepErr.Required,
			CurrentStep:  stepErr.Current,
			Redirect:     stepErr.Current.Redirect(),
		}, http.StatusForbidden)

	// Blocked wraps unsupported, so it goes first
	case errors.Is(err, validation.ErrBlockedCountry):
		httputil.RespondErrorWithDetails(w, i18n.T(ctx, i18n.MsgPhoneBlocked), httputil.CodeBlockedCountry, BlockedCountryDetails{
			AlternateCountries: validation.AlternateCountries(),
		}, http.StatusForbidden)
	case errors.Is(err, validation.ErrUnsupportedCountry):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgPhoneUnsupported), httputil.CodeUnsupportedCountry, http.StatusBadRequest)
	case errors.Is(err, validation.ErrInvalidFormat):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgPhoneInvalid), httputil.CodeInvalidPhone, http.StatusBadRequest)
	case errors.Is(err, validation.ErrInvalidLength):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgPhoneLength), httputil.CodeInvalidPhoneLength, http.StatusBadRequest)

	case errors.Is(err, ErrPhoneInUse):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgPhoneInUse), httputil.CodePhoneInUse, http.StatusConflict)
	case errors.As(err, &cooldownErr):
		secs := cooldownErr.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		httputil.RespondErrorWithDetails(w, i18n.T(ctx, i18n.MsgResendTooSoon, secs), httputil.CodeResendTooSoon,
			map[string]int{"retry_after_seconds": secs}, http.StatusTooManyRequests)
	case errors.Is(err, ErrNoPendingAttempt):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgNoPendingAttempt), httputil.CodeNoPendingAttempt, http.StatusBadRequest)
	case errors.Is(err, ErrPhoneMismatch):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgPhoneMismatch), httputil.CodePhoneMismatch, http.StatusBadRequest)
	case errors.Is(err, ErrCodeMismatch):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgCodeMismatch), httputil.CodeCodeMismatch, http.StatusBadRequest)
	case errors.Is(err, ErrExpired):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgCodeExpired), httputil.CodeCodeExpired, http.StatusBadRequest)
	case errors.Is(err, ErrSMSUnavailable):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgSMSUnavailable), httputil.CodeSMSUnavailable, http.StatusServiceUnavailable)

	case errors.As(err, &weakErr):
		httputil.RespondErrorWithDetails(w, i18n.T(ctx, i18n.MsgWeakPassword), httputil.CodeWeakPassword, weakErr.Check, http.StatusBadRequest)
	case errors.As(err, &missingErr):
		httputil.RespondErrorWithDetails(w, i18n.T(ctx, i18n.MsgMissingFields), httputil.CodeMissingFields,
			map[string][]string{"fields": missingErr.Fields}, http.StatusBadRequest)
	case errors.As(err, &fieldErr):
		httputil.RespondErrorWithDetails(w, i18n.T(ctx, i18n.MsgInvalidField), httputil.CodeInvalidField,
			map[string]string{"field": fieldErr.Field, "reason": fieldErr.Reason}, http.StatusBadRequest)
	case errors.Is(err, profile.ErrUnderage):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgUnderage), httputil.CodeUnderage, http.StatusForbidden)

	default:
		logger.Error("account workflow request failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInternal), httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
