package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tobiasgrant/storefront/internal/auth"
	"github.com/tobiasgrant/storefront/internal/providers"
	pkghttp "github.com/tobiasgrant/storefront/pkg/http"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
)

// OAuthHandler drives the browser half of a federated login: redirect out
// with a state nonce, then turn the provider callback into a local session.
type OAuthHandler struct {
	service      AuthServiceInterface
	clients      map[string]providers.Client
	cookieConfig auth.CookieConfig
	refreshTTL   time.Duration
	frontendURL  string
	logger       *slog.Logger
}

func NewOAuthHandler(
	service AuthServiceInterface,
	clients map[string]providers.Client,
	cookieConfig auth.CookieConfig,
	refreshTTL time.Duration,
	frontendURL string,
	logger *slog.Logger,
) *OAuthHandler {
	return &OAuthHandler{
		service:      service,
		clients:      clients,
		cookieConfig: cookieConfig,
		refreshTTL:   refreshTTL,
		frontendURL:  frontendURL,
		logger:       logger,
	}
}

// Begin redirects the browser to the provider consent page. The state nonce
// is mirrored into a short-lived cookie for the callback to verify.
func (h *OAuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	client, ok := h.clients[chi.URLParam(r, "provider")]
	if !ok {
		pkghttp.WriteNotFound(w, "Unknown provider")
		return
	}

	state, err := generateState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieConfig.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, client.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the handshake: verify state, exchange the code, fetch
// the profile, resolve it to a local account, and hand the session to the
// frontend.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	client, ok := h.clients[chi.URLParam(r, "provider")]
	if !ok {
		pkghttp.WriteNotFound(w, "Unknown provider")
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		h.logger.Warn("oauth callback state mismatch", slog.String("provider", client.Name()))
		pkghttp.WriteUnauthorized(w, "Authentication failed")
		return
	}
	h.clearStateCookie(w)

	code := r.URL.Query().Get("code")
	if code == "" {
		pkghttp.WriteBadRequest(w, "Missing authorization code")
		return
	}

	providerToken, err := client.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("oauth code exchange failed",
			slog.String("provider", client.Name()),
			slog.Any("error", err))
		pkghttp.WriteUnauthorized(w, "Authentication failed")
		return
	}

	profile, err := client.FetchProfile(r.Context(), providerToken)
	if err != nil {
		h.logger.Warn("oauth profile fetch failed",
			slog.String("provider", client.Name()),
			slog.Any("error", err))
		pkghttp.WriteUnauthorized(w, "Authentication failed")
		return
	}

	authResp, err := h.service.FederatedLogin(r.Context(), profile)
	if err != nil {
		pkghttp.WriteUnauthorized(w, "Authentication failed")
		return
	}

	auth.SetRefreshTokenCookie(w, authResp.RefreshToken, int(h.refreshTTL.Seconds()), h.cookieConfig)

	redirect, err := url.Parse(h.frontendURL)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	query := redirect.Query()
	query.Set("access_token", authResp.AccessToken)
	redirect.RawQuery = query.Encode()

	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (h *OAuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieConfig.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func generateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
