package auth

import (
	"net/http"
	"time"
)

// RefreshCookieName is the cookie carrying the opaque refresh secret.
const RefreshCookieName = "refresh_token"

// CookieConfig holds refresh cookie settings
type CookieConfig struct {
	Domain string // empty string = current host only
	Secure bool   // HTTPS only, enabled in production
}

// SetRefreshTokenCookie stores the refresh secret in an httpOnly,
// SameSite=Lax cookie scoped to the auth endpoints.
func SetRefreshTokenCookie(w http.ResponseWriter, secret string, maxAge int, config CookieConfig) {
	cookie := &http.Cookie{
		Name:     RefreshCookieName,
		Value:    secret,
		Path:     "/auth",
		Domain:   config.Domain,
		Expires:  time.Now().Add(time.Duration(maxAge) * time.Second),
		MaxAge:   maxAge,
		HttpOnly: true, // never script-readable
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
}

// ClearRefreshTokenCookie removes the refresh cookie.
func ClearRefreshTokenCookie(w http.ResponseWriter, config CookieConfig) {
	cookie := &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/auth",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
}

// GetRefreshTokenCookie retrieves the refresh secret from the request cookies.
func GetRefreshTokenCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
