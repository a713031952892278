package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tobiasgrant/storefront/internal/config"
	"github.com/tobiasgrant/storefront/internal/models"
)

const (
	githubAuthURL   = "https://github.com/login/oauth/authorize"
	githubTokenURL  = "https://github.com/login/oauth/access_token"
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"
)

type GitHubClient struct {
	cfg        config.ProviderConfig
	httpClient *http.Client

	authURL   string
	tokenURL  string
	userURL   string
	emailsURL string
}

func NewGitHubClient(cfg config.ProviderConfig) *GitHubClient {
	return &GitHubClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		authURL:    githubAuthURL,
		tokenURL:   githubTokenURL,
		userURL:    githubUserURL,
		emailsURL:  githubEmailsURL,
	}
}

func (g *GitHubClient) Name() string {
	return models.ProviderGitHub
}

func (g *GitHubClient) AuthCodeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", g.cfg.ClientID)
	params.Set("redirect_uri", g.cfg.RedirectURL)
	params.Set("scope", "read:user user:email")
	params.Set("state", state)
	return g.authURL + "?" + params.Encode()
}

type githubTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (g *GitHubClient) Exchange(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("code", code)
	data.Set("client_id", g.cfg.ClientID)
	data.Set("client_secret", g.cfg.ClientSecret)
	data.Set("redirect_uri", g.cfg.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrTokenExchange, resp.StatusCode, string(body))
	}

	var tokenResp githubTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrTokenExchange)
	}

	return tokenResp.AccessToken, nil
}

func (g *GitHubClient) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	user, err := g.fetchUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	email := user.Email
	if email == "" {
		// The public profile email is often hidden; fall back to the emails API
		email, _ = g.fetchPrimaryEmail(ctx, accessToken)
	}

	displayName := user.Name
	if displayName == "" {
		displayName = user.Login
	}

	return &Profile{
		Provider:    models.ProviderGitHub,
		ProviderID:  strconv.FormatInt(user.ID, 10),
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   user.AvatarURL,
	}, nil
}

func (g *GitHubClient) fetchUser(ctx context.Context, accessToken string) (*githubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrUserInfo, resp.StatusCode, string(body))
	}

	var user githubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}

	return &user, nil
}

func (g *GitHubClient) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.emailsURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUserInfo, resp.StatusCode)
	}

	var emails []githubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUserInfo, err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}

	return "", nil
}
