package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crmforce-io/crmq-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrNoValidCredentials = errors.New("no valid credentials available")
	ErrNoRefreshToken     = errors.New("no refresh token available")
)

// OAuth2Config configures the OAuth2 token manager.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	RefreshToken string
	AccessToken  string
	Scopes       []string

	// HTTPClient overrides the default client used for token requests.
	HTTPClient *http.Client
}

// OAuth2TokenManager obtains and refreshes tokens from the platform's OAuth2
// token endpoint.
type OAuth2TokenManager struct {
	config     *OAuth2Config
	store      *TokenStore
	httpClient *http.Client
}

// NewOAuth2TokenManager creates a token manager from config.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.ShortHTTPTimeout}
	}

	manager := &OAuth2TokenManager{
		config:     config,
		store:      NewTokenStore(),
		httpClient: httpClient,
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{
			AccessToken:  config.AccessToken,
			RefreshToken: config.RefreshToken,
			TokenType:    "bearer",
		})
	}

	return manager
}

// NewLoginTokenManager creates a client-credentials manager against the
// platform's auth endpoint.
func NewLoginTokenManager(authURL, clientID, clientSecret string) *OAuth2TokenManager {
	return NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     strings.TrimSuffix(authURL, "/") + "/oauth/token",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"api"},
	})
}

// NewLoginTokenManagerWithPassword creates a password-grant manager against
// the platform's auth endpoint.
func NewLoginTokenManagerWithPassword(authURL, clientID, clientSecret, username, password string) *OAuth2TokenManager {
	return NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     strings.TrimSuffix(authURL, "/") + "/oauth/token",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Username:     username,
		Password:     password,
		Scopes:       []string{"api"},
	})
}

// GetToken returns a valid access token, obtaining or refreshing one as
// needed.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token != nil && !token.IsExpired() {
		return token.AccessToken, nil
	}

	err := m.RefreshToken(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken forces a new token request using the best available grant.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	refreshToken := m.config.RefreshToken

	stored := m.store.Get()
	if stored != nil && stored.RefreshToken != "" {
		refreshToken = stored.RefreshToken
	}

	var (
		token *Token
		err   error
	)

	switch {
	case refreshToken != "":
		token, err = m.requestToken(ctx, url.Values{
			"grant_type":    []string{"refresh_token"},
			"refresh_token": []string{refreshToken},
		})
	case m.config.ClientID != "" && m.config.ClientSecret != "" && m.config.Username == "":
		token, err = m.requestToken(ctx, url.Values{
			"grant_type": []string{"client_credentials"},
		})
	case m.config.Username != "" && m.config.Password != "":
		token, err = m.requestToken(ctx, url.Values{
			"grant_type": []string{"password"},
			"username":   []string{m.config.Username},
			"password":   []string{m.config.Password},
		})
	default:
		return ErrNoValidCredentials
	}

	if err != nil {
		return err
	}

	m.store.Set(token)

	return nil
}

// SetToken stores a token obtained elsewhere.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}

// tokenEndpointError is the standard OAuth2 error response body.
type tokenEndpointError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (m *OAuth2TokenManager) requestToken(ctx context.Context, form url.Values) (*Token, error) {
	if len(m.config.Scopes) > 0 {
		form.Set("scope", strings.Join(m.config.Scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	if m.config.ClientID != "" {
		req.SetBasicAuth(m.config.ClientID, m.config.ClientSecret)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting token: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var endpointErr tokenEndpointError

		if json.Unmarshal(body, &endpointErr) == nil && endpointErr.Code != "" {
			return nil, fmt.Errorf("token request failed: %s: %s", endpointErr.Code, endpointErr.Description)
		}

		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var token Token

	err = json.Unmarshal(body, &token)
	if err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}

	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}
