package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukrch/platform/internal/avatar"
	"github.com/ukrch/platform/internal/config"
	"github.com/ukrch/platform/internal/httputil"
	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/logging"
	"github.com/ukrch/platform/internal/newsletter"
	"github.com/ukrch/platform/internal/profile"
	"github.com/ukrch/platform/internal/ratelimit"
	"github.com/ukrch/platform/internal/sms"
	"github.com/ukrch/platform/internal/validation"
	"github.com/ukrch/platform/internal/verification"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// newTestRouter wires the router with real handlers. Routes that would reach
// Postgres are only exercised up to their authentication and validation.
func newTestRouter(t *testing.T) (http.Handler, identity.TokenService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logging.NewLoggerWithWriter(false, io.Discard)
	cfg := &config.Config{
		Server: config.ServerConfig{Env: "prod", TrustedOrigins: []string{"https://ukrch.example"}},
		Auth: config.AuthConfig{
			TokenStrategy:        config.TokenStrategyPaseto,
			PasetoKey:            testKey,
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: time.Hour,
		},
	}

	tokens, err := identity.NewTokenService(cfg.Auth)
	require.NoError(t, err)

	limiter := ratelimit.NewLimiter(client)
	idService := identity.NewService(nil, identity.NewRedisRefreshStore(client), identity.NewPasswordResetStore(client),
		tokens, nil, logger, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
	profiles := profile.NewRepository(nil)
	workflow := verification.NewWorkflow(idService, profiles, sms.New(cfg.SMS, false, logger), nil, logger)
	news := newsletter.NewService(newsletter.NewClient("", ""), "test")

	router := NewRouter(cfg, Handlers{
		Identity:     identity.NewHandler(idService, limiter, true, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration),
		Auth:         identity.NewMiddleware(tokens),
		Workflow:     workflow,
		Verification: verification.NewHandler(workflow, limiter, true),
		Avatar:       avatar.NewHandler(avatar.NewService(cfg.Storage, profiles)),
		Validation:   validation.NewHandler(),
		Newsletter:   newsletter.NewHandler(news, limiter),
	}, logger)

	return router, tokens
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'none'", rec.Header().Get("Content-Security-Policy"))
}

func TestRouter_NoSwaggerInProduction(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_AccountRoutesRequireSession(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/account/step"},
		{http.MethodPost, "/account/phone/send-code"},
		{http.MethodPut, "/account/profile"},
		{http.MethodDelete, "/account"},
		{http.MethodPost, "/account/avatar/upload-url"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)

		var body httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, httputil.CodeMissingAuth, body.Code)
	}
}

func TestRouter_RejectsForgedToken(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/account/step", nil)
	req.Header.Set("Authorization", "Bearer v4.local.forged")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LocalisedErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	messages := map[string]string{}
	for _, lang := range []string{"uk", "en"} {
		req := httptest.NewRequest(http.MethodGet, "/account/step", nil)
		req.Header.Set("Accept-Language", lang)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var body httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		messages[lang] = body.Error
	}
	assert.NotEqual(t, messages["uk"], messages["en"])
}

func TestRouter_ValidationRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validation/phone", strings.NewReader(`{"phone":"+7 999 000 11 22"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp validation.PhoneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, httputil.CodeBlockedCountry, resp.Code)
}

func TestRouter_NewsletterUnconfigured(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/newsletter/subscribe", strings.NewReader(`{"email":"olena@example.ch"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/auth/signin", nil)
	req.Header.Set("Origin", "https://ukrch.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://ukrch.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSecurityHeaders(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	SecurityHeaders(true)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signin", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	SecurityHeaders(false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, swaggerCSP, rec.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}
