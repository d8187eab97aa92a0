// Package client implements the crmq.Client interface against the CRM API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crmforce-io/crmq-client/internal/auth"
	"github.com/crmforce-io/crmq-client/internal/constants"
	"github.com/crmforce-io/crmq-client/internal/http"
	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
	ErrStaticTokenCannotRefresh = errors.New("static token cannot be refreshed")
)

// Client implements the crmq.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       crmq.Logger

	query     crmq.QueryClient
	bulkQuery crmq.BulkQueryClient
	ingest    crmq.IngestClient
	tooling   crmq.ToolingClient
}

// createTokenManager creates the appropriate token manager based on config.
func createTokenManager(config *crmq.Config) auth.TokenManager {
	if config.AccessToken != "" && config.RefreshToken == "" {
		return &staticTokenManager{token: config.AccessToken}
	}

	if config.AccessToken != "" || config.ClientID != "" || config.Username != "" {
		return auth.NewOAuth2TokenManager(&auth.OAuth2Config{
			TokenURL:     getTokenURL(config),
			ClientID:     clientIDOrDefault(config),
			ClientSecret: config.ClientSecret,
			Username:     config.Username,
			Password:     config.Password,
			RefreshToken: config.RefreshToken,
			AccessToken:  config.AccessToken,
		})
	}

	return nil // No authentication
}

// clientIDOrDefault falls back to the public client id for the password
// grant.
func clientIDOrDefault(config *crmq.Config) string {
	if config.ClientID != "" {
		return config.ClientID
	}

	return constants.DefaultPublicClientID
}

// getTokenURL returns the token URL from config or a fallback.
func getTokenURL(config *crmq.Config) string {
	if config.TokenURL != "" {
		return config.TokenURL
	}

	return config.APIEndpoint + "/oauth/token" // Fallback, but should be discovered
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *crmq.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithHTTPTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates a new CRM API client.
func New(ctx context.Context, config *crmq.Config) (*Client, error) {
	if config == nil {
		return nil, crmq.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, crmq.ErrAPIEndpointRequired
	}

	tokenManager := createTokenManager(config)
	httpOpts := createHTTPClientOptions(config)
	httpClient := http.NewClient(config.APIEndpoint, tokenManager, httpOpts...)

	client := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      config.APIEndpoint,
		logger:       config.Logger,
	}

	client.initializeSubClients(config)

	return client, nil
}

// NewWithTokenManager creates a client with a caller-provided token manager.
func NewWithTokenManager(config *crmq.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, crmq.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, crmq.ErrAPIEndpointRequired
	}

	httpOpts := createHTTPClientOptions(config)
	httpClient := http.NewClient(config.APIEndpoint, tokenManager, httpOpts...)

	client := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      config.APIEndpoint,
		logger:       config.Logger,
	}

	client.initializeSubClients(config)

	return client, nil
}

// initializeSubClients wires the operation-specific clients.
func (c *Client) initializeSubClients(config *crmq.Config) {
	progress := config.Progress
	if progress == nil {
		progress = crmq.NoOpProgress{}
	}

	maxRetry := config.MaxQueryRetry
	if maxRetry <= 0 {
		maxRetry = constants.DefaultMaxQueryRetry
	}

	c.query = NewQueryClient(c.httpClient, config.Cache)
	c.bulkQuery = NewBulkQueryClient(c.httpClient, maxRetry, progress)
	c.ingest = NewIngestClient(c.httpClient, progress)
	c.tooling = NewToolingClient(c.httpClient)
}

// Query implements crmq.Client.Query.
func (c *Client) Query() crmq.QueryClient {
	return c.query
}

// BulkQuery implements crmq.Client.BulkQuery.
func (c *Client) BulkQuery() crmq.BulkQueryClient {
	return c.bulkQuery
}

// Ingest implements crmq.Client.Ingest.
func (c *Client) Ingest() crmq.IngestClient {
	return c.ingest
}

// Tooling implements crmq.Client.Tooling.
func (c *Client) Tooling() crmq.ToolingClient {
	return c.tooling
}

// GetRootInfo implements crmq.Client.GetRootInfo.
func (c *Client) GetRootInfo(ctx context.Context) (*crmq.RootInfo, error) {
	resp, err := c.httpClient.Get(ctx, "/", nil)
	if err != nil {
		return nil, fmt.Errorf("getting root info: %w", err)
	}

	var rootInfo crmq.RootInfo

	err = json.Unmarshal(resp.Body, &rootInfo)
	if err != nil {
		return nil, fmt.Errorf("parsing root info response: %w", err)
	}

	return &rootInfo, nil
}

// GetToken returns the current access token from the token manager.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", ErrNoTokenManagerConfigured
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// staticTokenManager provides a static token.
type staticTokenManager struct {
	token string
}

func (m *staticTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.token, nil
}

func (m *staticTokenManager) RefreshToken(ctx context.Context) error {
	return ErrStaticTokenCannotRefresh
}

func (m *staticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.token = token
}
