package httputil

// Machine-readable error codes returned in ErrorResponse.Code
const (
	CodeInternalError      = "internal_error"
	CodeInvalidRequestBody = "invalid_request_body"
	CodeTooManyRequests    = "too_many_requests"
	CodeCooldownActive     = "cooldown_active"
	CodeServiceUnavailable = "service_unavailable"

	// Session
	CodeMissingAuth        = "missing_auth"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeInvalidTokenUserID = "invalid_token_account_id"
	CodeSessionMismatch    = "session_mismatch"

	// Identity
	CodeEmailRequired        = "email_required"
	CodeInvalidEmailFormat   = "invalid_email_format"
	CodeEmailAlreadyExists   = "email_already_exists"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeEmailNotConfirmed    = "email_not_confirmed"
	CodeConfirmationRequired = "confirmation_token_required"
	CodeConfirmationFailed   = "confirmation_failed"
	CodeAlreadyConfirmed     = "already_confirmed"
	CodeRefreshTokenRequired = "refresh_token_required"
	CodeInvalidRefreshToken  = "invalid_refresh_token"
	CodeInvalidResetToken    = "invalid_reset_token"
	CodeWeakPassword         = "weak_password"

	// Verification workflow
	CodeStepNotReached     = "step_not_reached"
	CodeInvalidPhone       = "invalid_phone"
	CodeInvalidPhoneLength = "invalid_phone_length"
	CodeUnsupportedCountry = "unsupported_country"
	CodeBlockedCountry     = "blocked_country"
	CodePhoneInUse         = "phone_in_use"
	CodeNoPendingAttempt   = "no_pending_attempt"
	CodePhoneMismatch      = "phone_mismatch"
	CodeCodeMismatch       = "code_mismatch"
	CodeCodeExpired        = "code_expired"
	CodeResendTooSoon      = "resend_too_soon"
	CodeSMSUnavailable     = "sms_unavailable"
	CodeMissingFields      = "missing_fields"
	CodeInvalidField       = "invalid_field"
	CodeUnderage           = "underage"

	// Newsletter and avatars
	CodeNewsletterUnavailable = "newsletter_unavailable"
	CodeStorageUnavailable    = "storage_unavailable"
	CodeInvalidAvatarKey      = "invalid_avatar_key"
	CodeNoAvatar              = "no_avatar"
)
