package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ukrch/platform/internal/httputil"
	"github.com/ukrch/platform/internal/i18n"
	"github.com/ukrch/platform/internal/logging"
)

type contextKey string

const (
	accountIDContextKey contextKey = "account_id"
	emailContextKey     contextKey = "account_email"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	tokens TokenService
}

func NewMiddleware(tokens TokenService) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireAuth validates the access token and puts the session account in the context
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var token string

		// Priority 1: Authorization header
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidAuth), httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
				return
			}
			token = parts[1]
		}

		// Priority 2: Cookie (fallback)
		if token == "" {
			cookieToken, err := GetAccessTokenFromCookie(r)
			if err != nil || cookieToken == "" {
				httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgMissingAuth), httputil.CodeMissingAuth, http.StatusUnauthorized)
				return
			}
			token = cookieToken
		}

		claims, err := m.tokens.VerifyToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgTokenExpired), httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidToken), httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		accountID, err := uuid.Parse(claims.AccountID)
		if err != nil {
			httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidToken), httputil.CodeInvalidTokenUserID, http.StatusUnauthorized)
			return
		}

		ctx = ContextWithAccount(ctx, accountID, claims.Email)
		logger := logging.GetLoggerFromContext(ctx).WithFields(map[string]any{"account_id": accountID.String()})
		ctx = logging.ContextWithLogger(ctx, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextWithAccount returns a context carrying the session account
func ContextWithAccount(ctx context.Context, accountID uuid.UUID, email string) context.Context {
	ctx = context.WithValue(ctx, accountIDContextKey, accountID)
	return context.WithValue(ctx, emailContextKey, email)
}

// AccountIDFromContext extracts the session account ID from the request context
func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountIDContextKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// EmailFromContext extracts the session email from the request context
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailContextKey).(string)
	return email, ok
}
