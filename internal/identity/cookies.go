package identity

import (
	"net/http"
	"time"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
	refreshCookiePath  = "/auth"
)

// ShouldUseCookies reports whether the client is a browser that should get
// tokens as HttpOnly cookies instead of in the response body.
func ShouldUseCookies(r *http.Request) bool {
	if r.Header.Get("Origin") != "" {
		return true
	}
	_, err := r.Cookie(refreshTokenCookie)
	return err == nil
}

// SetAuthCookies stores a session in HttpOnly cookies
func SetAuthCookies(w http.ResponseWriter, session *Session, secure bool, accessDuration, refreshDuration time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    session.AccessToken,
		Path:     "/",
		MaxAge:   int(accessDuration.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    session.RefreshToken,
		Path:     refreshCookiePath,
		MaxAge:   int(refreshDuration.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearAuthCookies expires both session cookies
func ClearAuthCookies(w http.ResponseWriter, secure bool) {
	for _, c := range []struct{ name, path string }{
		{accessTokenCookie, "/"},
		{refreshTokenCookie, refreshCookiePath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
		})
	}
}

// GetAccessTokenFromCookie returns the access token cookie value
func GetAccessTokenFromCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(accessTokenCookie)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// GetRefreshTokenFromCookie returns the refresh token cookie value
func GetRefreshTokenFromCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(refreshTokenCookie)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}
