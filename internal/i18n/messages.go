package i18n

import "golang.org/x/text/language"

// Message keys
const (
	MsgInternal        = "internal"
	MsgInvalidBody     = "invalid_body"
	MsgTooManyRequests = "too_many_requests"
	MsgCooldown        = "cooldown"
	MsgMissingAuth     = "missing_auth"
	MsgInvalidAuth     = "invalid_auth_header"
	MsgInvalidToken    = "invalid_token"
	MsgTokenExpired    = "token_expired"
	MsgSessionMismatch = "session_mismatch"

	MsgEmailRequired        = "email_required"
	MsgInvalidEmail         = "invalid_email"
	MsgEmailExists          = "email_exists"
	MsgInvalidCredentials   = "invalid_credentials"
	MsgEmailNotConfirmed    = "email_not_confirmed"
	MsgConfirmationRequired = "confirmation_required"
	MsgConfirmationInvalid  = "confirmation_invalid"
	MsgConfirmationExpired  = "confirmation_expired"
	MsgAlreadyConfirmed     = "already_confirmed"
	MsgRefreshRequired      = "refresh_required"
	MsgRefreshInvalid       = "refresh_invalid"
	MsgResetInvalid         = "reset_invalid"
	MsgWeakPassword         = "weak_password"
	MsgSignedUp             = "signed_up"
	MsgConfirmed            = "confirmed"
	MsgConfirmationResent   = "confirmation_resent"
	MsgResetRequested       = "reset_requested"
	MsgPasswordReset        = "password_reset"
	MsgSignedIn             = "signed_in"
	MsgRefreshed            = "refreshed"
	MsgSignedOut            = "signed_out"

	MsgStepNotReached     = "step_not_reached"
	MsgPhoneInvalid       = "phone_invalid"
	MsgPhoneLength        = "phone_length"
	MsgPhoneUnsupported   = "phone_unsupported"
	MsgPhoneBlocked       = "phone_blocked"
	MsgPhoneInUse         = "phone_in_use"
	MsgNoPendingAttempt   = "no_pending_attempt"
	MsgPhoneMismatch      = "phone_mismatch"
	MsgCodeMismatch       = "code_mismatch"
	MsgCodeExpired        = "code_expired"
	MsgResendTooSoon      = "resend_too_soon"
	MsgSMSUnavailable     = "sms_unavailable"
	MsgCodeSent           = "code_sent"
	MsgSMSBody            = "sms_body"
	MsgPhoneVerified      = "phone_verified"
	MsgPasswordSet        = "password_set"
	MsgMissingFields      = "missing_fields"
	MsgInvalidField       = "invalid_field"
	MsgUnderage           = "underage"
	MsgProfileSaved       = "profile_saved"
	MsgProfileNotFound    = "profile_not_found"
	MsgAccountDeleted     = "account_deleted"
	MsgNewsletterDown     = "newsletter_unavailable"
	MsgSubscribed         = "subscribed"
	MsgUnsubscribed       = "unsubscribed"
	MsgStorageUnavailable = "storage_unavailable"
	MsgInvalidAvatarKey   = "invalid_avatar_key"
	MsgAvatarSaved        = "avatar_saved"
	MsgNoAvatar           = "no_avatar"
)

var catalog = map[language.Tag]map[string]string{
	language.Ukrainian: {
		MsgInternal:        "Сталася внутрішня помилка. Спробуйте пізніше.",
		MsgInvalidBody:     "Некоректний запит.",
		MsgTooManyRequests: "Забагато запитів. Спробуйте пізніше.",
		MsgCooldown:        "Зачекайте трохи перед наступним запитом.",
		MsgMissingAuth:     "Потрібна автентифікація.",
		MsgInvalidAuth:     "Некоректний заголовок Authorization.",
		MsgInvalidToken:    "Недійсний токен.",
		MsgTokenExpired:    "Термін дії токена минув.",
		MsgSessionMismatch: "Запит не відповідає поточній сесії.",

		MsgEmailRequired:        "Вкажіть електронну пошту.",
		MsgInvalidEmail:         "Некоректна адреса електронної пошти.",
		MsgEmailExists:          "Обліковий запис з цією поштою вже існує.",
		MsgInvalidCredentials:   "Неправильна пошта або пароль.",
		MsgEmailNotConfirmed:    "Пошту не підтверджено. Перевірте вхідні листи.",
		MsgConfirmationRequired: "Потрібен токен підтвердження.",
		MsgConfirmationInvalid:  "Недійсне посилання підтвердження.",
		MsgConfirmationExpired:  "Термін дії посилання минув. Надішліть нове.",
		MsgAlreadyConfirmed:     "Пошту вже підтверджено. Увійдіть у свій обліковий запис.",
		MsgRefreshRequired:      "Потрібен refresh-токен.",
		MsgRefreshInvalid:       "Недійсний або прострочений refresh-токен.",
		MsgResetInvalid:         "Недійсне або прострочене посилання для скидання пароля.",
		MsgWeakPassword:         "Пароль не відповідає вимогам.",
		MsgSignedUp:             "Реєстрація успішна. Перевірте пошту, щоб підтвердити адресу.",
		MsgConfirmed:            "Пошту підтверджено.",
		MsgConfirmationResent:   "Якщо обліковий запис існує і не підтверджений, ми надіслали новий лист.",
		MsgResetRequested:       "Якщо обліковий запис існує, ми надіслали посилання для скидання пароля.",
		MsgPasswordReset:        "Пароль змінено. Тепер можна увійти.",
		MsgSignedIn:             "Вхід виконано.",
		MsgRefreshed:            "Сесію оновлено.",
		MsgSignedOut:            "Ви вийшли з облікового запису.",

		MsgStepNotReached:     "Спершу завершіть попередній крок.",
		MsgPhoneInvalid:       "Номер телефону має починатися з + і містити лише цифри.",
		MsgPhoneLength:        "Після коду країни має бути від 7 до 12 цифр.",
		MsgPhoneUnsupported:   "Номери цієї країни не підтримуються.",
		MsgPhoneBlocked:       "Номери з кодом +7 не приймаються. Вкажіть номер іншої країни або видаліть обліковий запис.",
		MsgPhoneInUse:         "Цей номер уже прив'язано до іншого облікового запису.",
		MsgNoPendingAttempt:   "Спершу запросіть код підтвердження.",
		MsgPhoneMismatch:      "Номер не збігається з тим, на який надіслано код.",
		MsgCodeMismatch:       "Неправильний код.",
		MsgCodeExpired:        "Термін дії коду минув. Запросіть новий.",
		MsgResendTooSoon:      "Новий код можна запросити через %d с.",
		MsgSMSUnavailable:     "Надсилання SMS зараз недоступне.",
		MsgCodeSent:           "Код надіслано.",
		MsgSMSBody:            "Ваш код підтвердження: %s. Дійсний 10 хвилин.",
		MsgPhoneVerified:      "Номер телефону підтверджено.",
		MsgPasswordSet:        "Пароль встановлено.",
		MsgMissingFields:      "Заповніть обов'язкові поля.",
		MsgInvalidField:       "Некоректне значення поля.",
		MsgUnderage:           "Вам має бути щонайменше 14 років.",
		MsgProfileSaved:       "Профіль збережено.",
		MsgProfileNotFound:    "Профіль не знайдено.",
		MsgAccountDeleted:     "Обліковий запис видалено.",
		MsgNewsletterDown:     "Розсилка зараз недоступна.",
		MsgSubscribed:         "Ви підписалися на розсилку.",
		MsgUnsubscribed:       "Ви відписалися від розсилки.",
		MsgStorageUnavailable: "Сховище файлів зараз недоступне.",
		MsgInvalidAvatarKey:   "Некоректний ключ аватара.",
		MsgAvatarSaved:        "Аватар збережено.",
		MsgNoAvatar:           "Аватар не завантажено.",
	},
	language.English: {
		MsgInternal:        "An internal error occurred. Please try again later.",
		MsgInvalidBody:     "Invalid request body.",
		MsgTooManyRequests: "Too many requests, please try again later.",
		MsgCooldown:        "Please wait before requesting again.",
		MsgMissingAuth:     "Authentication required.",
		MsgInvalidAuth:     "Invalid authorization header format.",
		MsgInvalidToken:    "Invalid token.",
		MsgTokenExpired:    "Token has expired.",
		MsgSessionMismatch: "The request does not match the current session.",

		MsgEmailRequired:        "Email is required.",
		MsgInvalidEmail:         "Invalid email format.",
		MsgEmailExists:          "An account with this email already exists.",
		MsgInvalidCredentials:   "Invalid email or password.",
		MsgEmailNotConfirmed:    "Email not confirmed, please check your inbox.",
		MsgConfirmationRequired: "Confirmation token required.",
		MsgConfirmationInvalid:  "Invalid confirmation link.",
		MsgConfirmationExpired:  "Confirmation link has expired. Please request a new one.",
		MsgAlreadyConfirmed:     "This email is already confirmed. You can sign in now.",
		MsgRefreshRequired:      "Refresh token required.",
		MsgRefreshInvalid:       "Invalid or expired refresh token.",
		MsgResetInvalid:         "Invalid or expired reset token.",
		MsgWeakPassword:         "The password does not meet the requirements.",
		MsgSignedUp:             "Sign-up successful. Please check your email to confirm your address.",
		MsgConfirmed:            "Email confirmed.",
		MsgConfirmationResent:   "If your email is registered and not confirmed, a new confirmation link has been sent.",
		MsgResetRequested:       "If an account exists with that email, a password reset link has been sent.",
		MsgPasswordReset:        "Password reset successfully. You can now sign in with your new password.",
		MsgSignedIn:             "Signed in successfully.",
		MsgRefreshed:            "Session refreshed.",
		MsgSignedOut:            "Signed out.",

		MsgStepNotReached:     "Please complete the previous step first.",
		MsgPhoneInvalid:       "Phone number must start with + and contain only digits.",
		MsgPhoneLength:        "Phone number must have 7 to 12 digits after the country code.",
		MsgPhoneUnsupported:   "Phone numbers from this country are not supported.",
		MsgPhoneBlocked:       "Numbers with the +7 calling code are not accepted. Use a number from another country or delete your account.",
		MsgPhoneInUse:         "This phone number is already linked to another account.",
		MsgNoPendingAttempt:   "Please request a verification code first.",
		MsgPhoneMismatch:      "The phone number does not match the one the code was sent to.",
		MsgCodeMismatch:       "Incorrect code.",
		MsgCodeExpired:        "The code has expired. Please request a new one.",
		MsgResendTooSoon:      "You can request a new code in %d s.",
		MsgSMSUnavailable:     "SMS delivery is currently unavailable.",
		MsgCodeSent:           "Code sent.",
		MsgSMSBody:            "Your verification code is %s. It is valid for 10 minutes.",
		MsgPhoneVerified:      "Phone number verified.",
		MsgPasswordSet:        "Password set.",
		MsgMissingFields:      "Please fill in the required fields.",
		MsgInvalidField:       "Invalid field value.",
		MsgUnderage:           "You must be at least 14 years old.",
		MsgProfileSaved:       "Profile saved.",
		MsgProfileNotFound:    "Profile not found.",
		MsgAccountDeleted:     "Account deleted.",
		MsgNewsletterDown:     "The newsletter is currently unavailable.",
		MsgSubscribed:         "Subscribed to the newsletter.",
		MsgUnsubscribed:       "Unsubscribed from the newsletter.",
		MsgStorageUnavailable: "File storage is currently unavailable.",
		MsgInvalidAvatarKey:   "Invalid avatar key.",
		MsgAvatarSaved:        "Avatar saved.",
		MsgNoAvatar:           "No avatar uploaded.",
	},
	language.German: {
		MsgInternal:        "Ein interner Fehler ist aufgetreten. Bitte versuchen Sie es später erneut.",
		MsgInvalidBody:     "Ungültige Anfrage.",
		MsgTooManyRequests: "Zu viele Anfragen. Bitte versuchen Sie es später erneut.",
		MsgCooldown:        "Bitte warten Sie vor der nächsten Anfrage.",
		MsgMissingAuth:     "Anmeldung erforderlich.",
		MsgInvalidToken:    "Ungültiges Token.",
		MsgTokenExpired:    "Das Token ist abgelaufen.",
		MsgSessionMismatch: "Die Anfrage passt nicht zur aktuellen Sitzung.",

		MsgEmailRequired:       "E-Mail-Adresse erforderlich.",
		MsgInvalidEmail:        "Ungültige E-Mail-Adresse.",
		MsgEmailExists:         "Ein Konto mit dieser E-Mail-Adresse existiert bereits.",
		MsgInvalidCredentials:  "E-Mail oder Passwort ist falsch.",
		MsgEmailNotConfirmed:   "E-Mail-Adresse nicht bestätigt. Bitte prüfen Sie Ihren Posteingang.",
		MsgConfirmationInvalid: "Ungültiger Bestätigungslink.",
		MsgConfirmationExpired: "Der Bestätigungslink ist abgelaufen. Bitte fordern Sie einen neuen an.",
		MsgAlreadyConfirmed:    "Diese E-Mail-Adresse ist bereits bestätigt. Sie können sich anmelden.",
		MsgRefreshInvalid:      "Ungültiges oder abgelaufenes Refresh-Token.",
		MsgResetInvalid:        "Ungültiger oder abgelaufener Link zum Zurücksetzen.",
		MsgWeakPassword:        "Das Passwort erfüllt die Anforderungen nicht.",
		MsgSignedUp:            "Registrierung erfolgreich. Bitte bestätigen Sie Ihre E-Mail-Adresse.",
		MsgConfirmed:           "E-Mail-Adresse bestätigt.",
		MsgPasswordReset:       "Passwort zurückgesetzt. Sie können sich jetzt anmelden.",
		MsgSignedIn:            "Erfolgreich angemeldet.",
		MsgSignedOut:           "Abgemeldet.",

		MsgStepNotReached:   "Bitte schliessen Sie zuerst den vorherigen Schritt ab.",
		MsgPhoneInvalid:     "Die Telefonnummer muss mit + beginnen und darf nur Ziffern enthalten.",
		MsgPhoneLength:      "Nach der Ländervorwahl müssen 7 bis 12 Ziffern folgen.",
		MsgPhoneUnsupported: "Telefonnummern aus diesem Land werden nicht unterstützt.",
		MsgPhoneBlocked:     "Nummern mit der Vorwahl +7 werden nicht akzeptiert. Verwenden Sie eine Nummer eines anderen Landes oder löschen Sie Ihr Konto.",
		MsgPhoneInUse:       "Diese Telefonnummer ist bereits mit einem anderen Konto verknüpft.",
		MsgNoPendingAttempt: "Bitte fordern Sie zuerst einen Bestätigungscode an.",
		MsgPhoneMismatch:    "Die Telefonnummer stimmt nicht mit der Nummer überein, an die der Code gesendet wurde.",
		MsgCodeMismatch:     "Falscher Code.",
		MsgCodeExpired:      "Der Code ist abgelaufen. Bitte fordern Sie einen neuen an.",
		MsgResendTooSoon:    "Ein neuer Code kann in %d s angefordert werden.",
		MsgSMSUnavailable:   "Der SMS-Versand ist derzeit nicht verfügbar.",
		MsgCodeSent:         "Code gesendet.",
		MsgSMSBody:          "Ihr Bestätigungscode lautet %s. Er ist 10 Minuten gültig.",
		MsgPhoneVerified:    "Telefonnummer bestätigt.",
		MsgPasswordSet:      "Passwort gesetzt.",
		MsgMissingFields:    "Bitte füllen Sie die Pflichtfelder aus.",
		MsgUnderage:         "Sie müssen mindestens 14 Jahre alt sein.",
		MsgProfileSaved:     "Profil gespeichert.",
		MsgAccountDeleted:   "Konto gelöscht.",
		MsgSubscribed:       "Newsletter abonniert.",
		MsgUnsubscribed:     "Newsletter abbestellt.",
	},
}
