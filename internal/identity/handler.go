package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ukrch/platform/internal/httputil"
	"github.com/ukrch/platform/internal/i18n"
	"github.com/ukrch/platform/internal/logging"
	"github.com/ukrch/platform/internal/ratelimit"
)

// Handler contains HTTP handlers for identity endpoints
type Handler struct {
	service         *Service
	rateLimiter     *ratelimit.Limiter
	isProduction    bool
	accessDuration  time.Duration
	refreshDuration time.Duration
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, isProduction bool, accessDuration, refreshDuration time.Duration) *Handler {
	return &Handler{
		service:         service,
		rateLimiter:     rateLimiter,
		isProduction:    isProduction,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
	}
}

// SignUpRequest represents the sign-up request body
type SignUpRequest struct {
	Email string `json:"email"`
}

// SignInRequest represents the sign-in request body
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// EmailRequest carries just an email address
type EmailRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// SignUpResponse represents the sign-up response
type SignUpResponse struct {
	Success   bool      `json:"success"`
	AccountID uuid.UUID `json:"account_id"`
	Message   string    `json:"message"`
}

// SessionResponse is returned when a session is issued. Tokens are omitted
// for browser clients, which receive them as cookies.
type SessionResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Session *Session `json:"session,omitempty"`
}

// MessageResponse is a success flag with a human readable message
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SignUp handles account creation
// @Summary      Sign up
// @Description  Create an account from an email address. A confirmation email will be sent.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignUpRequest true "Email address"
// @Success      201 {object} SignUpResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/signup [post]
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.GetLoggerFromContext(ctx)

	if h.ipLimited(w, r, "signup") {
		return
	}

	var req SignUpRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid sign-up request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidBody), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	account, err := h.service.SignUp(ctx, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			logger.Warn("sign-up failed: email already exists")
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgEmailExists), httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrEmailRequired):
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgEmailRequired), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidEmail), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		default:
			logger.Error("sign-up failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInternal), httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("account signed up", "account_id", account.ID)

	httputil.RespondJSON(w, SignUpResponse{
		Success:   true,
		AccountID: account.ID,
		Message:   i18n.T(ctx, i18n.MsgSignedUp),
	}, http.StatusCreated)
}

// Confirm handles email confirmation
// @Summary      Confirm email address
// @Description  Confirm an email address with the token from the confirmation email and start a session
// @Tags         auth
// @Produce      json
// @Param        token query string true "Confirmation token"
// @Success      200 {object} SessionResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid, expired, or already used token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/confirm [get]
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.GetLoggerFromContext(ctx)

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgConfirmationRequired), httputil.CodeConfirmationRequired, http.StatusBadRequest)
		return
	}

	session, err := h.service.ConfirmEmail(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, ErrConfirmationExpired):
			logger.Warn("email confirmation failed: token expired")
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgConfirmationExpired), httputil.CodeTokenExpired, http.StatusBadRequest)
		case errors.Is(err, ErrAlreadyConfirmed):
			logger.Warn("email confirmation failed: already confirmed")
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgAlreadyConfirmed), httputil.CodeAlreadyConfirmed, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidConfirmationToken):
			logger.Warn("email confirmation failed: invalid token")
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgConfirmationInvalid), httputil.CodeConfirmationFailed, http.StatusBadRequest)
		default:
			logger.Error("email confirmation failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInternal), httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("email confirmed", "account_id", session.AccountID)
	h.respondSession(w, r, session, i18n.T(ctx, i18n.MsgConfirmed))
}

// ResendConfirmation handles resending the confirmation email
// @Summary      Resend confirmation email
// @Description  Send a new confirmation email. Always returns success to prevent email enumeration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/resend-confirmation [post]
func (h *Handler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EmailRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidBody), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if h.ipLimited(w, r, "") || h.emailCoolingDown(w, r, req.Email) {
		return
	}

	// Always nil; failures are logged by the service
	_ = h.service.ResendConfirmation(ctx, req.Email)

	httputil.RespondJSON(w, MessageResponse{Success: true, Message: i18n.T(ctx, i18n.MsgConfirmationResent)}, http.StatusOK)
}

// SignIn handles sign-in
// @Summary      Sign in
// @Description  Authenticate with email and password and receive access and refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignInRequest true "Credentials"
// @Success      200 {object} SessionResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      403 {object} httputil.ErrorResponse "Email not confirmed"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/signin [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.GetLoggerFromContext(ctx)

	if h.ipLimited(w, r, "signin") {
		return
	}

	var req SignInRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid sign-in request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidBody), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	session, err := h.service.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("sign-in failed: invalid credentials")
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidCredentials), httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrEmailNotConfirmed):
			logger.Warn("sign-in failed: email not confirmed")
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgEmailNotConfirmed), httputil.CodeEmailNotConfirmed, http.StatusForbidden)
		default:
			logger.Error("sign-in failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInternal), httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("account signed in", "account_id", session.AccountID)
	h.respondSession(w, r, session, i18n.T(ctx, i18n.MsgSignedIn))
}

// Refresh handles access token refresh
// @Summary      Refresh session
// @Description  Rotate a refresh token into a new access and refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Refresh token (cookie is used when omitted)"
// @Success      200 {object} SessionResponse
// @Failure      400 {object} httputil.ErrorResponse "Refresh token missing"
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired refresh token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.GetLoggerFromContext(ctx)

	refreshToken := refreshTokenFromRequest(w, r)
	if refreshToken == "" {
		logger.Warn("refresh token missing from both body and cookie")
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgRefreshRequired), httputil.CodeRefreshTokenRequired, http.StatusBadRequest)
		return
	}

	session, err := h.service.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrRefreshTokenRevoked) || errors.Is(err, ErrRefreshTokenExpired) {
			logger.Warn("token refresh failed: invalid or expired token", "error", err.Error())
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgRefreshInvalid), httputil.CodeInvalidRefreshToken, http.StatusUnauthorized)
			return
		}
		logger.Error("token refresh failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInternal), httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	h.respondSession(w, r, session, i18n.T(ctx, i18n.MsgRefreshed))
}

// SignOut handles sign-out
// @Summary      Sign out
// @Description  Revoke the refresh token and clear session cookies
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Optional refresh token"
// @Success      200 {object} MessageResponse
// @Router       /auth/signout [post]
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.GetLoggerFromContext(ctx)

	if refreshToken := refreshTokenFromRequest(w, r); refreshToken != "" {
		if err := h.service.SignOut(ctx, refreshToken); err != nil && !errors.Is(err, ErrRefreshTokenNotFound) {
			// Continue - still clear cookies
			logger.Warn("failed to revoke refresh token", "error", err)
		}
	}

	ClearAuthCookies(w, h.isProduction)

	httputil.RespondJSON(w, MessageResponse{Success: true, Message: i18n.T(ctx, i18n.MsgSignedOut)}, http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Send a password reset link. Always returns success to prevent email enumeration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EmailRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidBody), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if h.ipLimited(w, r, "") || h.emailCoolingDown(w, r, req.Email) {
		return
	}

	_ = h.service.RequestPasswordReset(ctx, req.Email)

	httputil.RespondJSON(w, MessageResponse{Success: true, Message: i18n.T(ctx, i18n.MsgResetRequested)}, http.StatusOK)
}

// ResetPassword handles password reset with token
// @Summary      Reset password
// @Description  Set a new password using a valid reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Reset token and new password"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request, weak password, or invalid token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.GetLoggerFromContext(ctx)

	var req ResetPasswordRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidBody), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.ResetPassword(ctx, req.Token, req.NewPassword)
	if err != nil {
		var weak *WeakPasswordError
		switch {
		case errors.As(err, &weak):
			httputil.RespondErrorWithDetails(w, i18n.T(ctx, i18n.MsgWeakPassword), httputil.CodeWeakPassword, weak.Check, http.StatusBadRequest)
		case errors.Is(err, ErrResetTokenNotFound):
			logger.Warn("password reset failed: invalid or expired token")
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgResetInvalid), httputil.CodeInvalidResetToken, http.StatusBadRequest)
		default:
			logger.Error("password reset failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInternal), httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password reset successfully")
	httputil.RespondJSON(w, MessageResponse{Success: true, Message: i18n.T(ctx, i18n.MsgPasswordReset)}, http.StatusOK)
}

func (h *Handler) respondSession(w http.ResponseWriter, r *http.Request, session *Session, message string) {
	// Browsers get cookies, other clients get tokens in the body
	if ShouldUseCookies(r) {
		SetAuthCookies(w, session, h.isProduction, h.accessDuration, h.refreshDuration)
		httputil.RespondJSON(w, SessionResponse{Success: true, Message: message}, http.StatusOK)
		return
	}
	httputil.RespondJSON(w, SessionResponse{Success: true, Message: message, Session: session}, http.StatusOK)
}

// ipLimited checks and records the IP budget of purpose. Limiter errors fail
// open so that a Redis outage does not lock everyone out.
func (h *Handler) ipLimited(w http.ResponseWriter, r *http.Request, purpose string) bool {
	ctx := r.Context()
	logger := logging.GetLoggerFromContext(ctx)
	ip := httputil.ClientIP(r)

	var exceeded bool
	var err error
	if purpose == "" {
		exceeded, err = h.rateLimiter.CheckIPRateLimit(ctx, ip)
	} else {
		exceeded, err = h.rateLimiter.CheckIPRateLimitWithPurpose(ctx, ip, purpose)
	}
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgTooManyRequests), httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if purpose == "" {
		err = h.rateLimiter.RecordIPRequest(ctx, ip)
	} else {
		err = h.rateLimiter.RecordIPRequestWithPurpose(ctx, ip, purpose)
	}
	if err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	return false
}

func (h *Handler) emailCoolingDown(w http.ResponseWriter, r *http.Request, email string) bool {
	ctx := r.Context()
	logger := logging.GetLoggerFromContext(ctx)

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(ctx, email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown")
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgCooldown), httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.SetEmailCooldown(ctx, email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}
	return false
}

// refreshTokenFromRequest reads the refresh token from the JSON body, falling back to the cookie
func refreshTokenFromRequest(w http.ResponseWriter, r *http.Request) string {
	var req RefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		_ = httputil.DecodeJSON(w, r, &req)
	}

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		token, _ = GetRefreshTokenFromCookie(r)
	}
	return strings.TrimSpace(token)
}
