// Package crmclient provides the main entry point for creating CRM API clients
package crmclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/crmforce-io/crmq-client/internal/client"
	"github.com/crmforce-io/crmq-client/internal/constants"
	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

// New creates a new CRM API client with automatic auth endpoint discovery.
func New(ctx context.Context, config *crmq.Config) (crmq.Client, error) {
	if config == nil {
		return nil, crmq.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, crmq.ErrAPIEndpointRequired
	}

	// Normalize API endpoint
	apiEndpoint := strings.TrimSuffix(config.APIEndpoint, "/")
	if !strings.HasPrefix(apiEndpoint, "http://") && !strings.HasPrefix(apiEndpoint, "https://") {
		apiEndpoint = "https://" + apiEndpoint
	}

	config.APIEndpoint = apiEndpoint

	// If we need authentication and don't have a token URL, discover the
	// auth endpoint from the API root
	if needsAuth(config) && config.TokenURL == "" {
		authURL, err := discoverAuthEndpoint(ctx, apiEndpoint, config.SkipTLSVerify)
		if err != nil {
			return nil, fmt.Errorf("discovering auth endpoint: %w", err)
		}

		config.TokenURL = strings.TrimSuffix(authURL, "/") + "/oauth/token"
	}

	if config.MaxQueryRetry <= 0 {
		config.MaxQueryRetry = maxQueryRetryFromEnv()
	}

	crmClient, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return crmClient, nil
}

// needsAuth checks if the config requires authentication.
func needsAuth(config *crmq.Config) bool {
	return config.AccessToken == "" &&
		(config.Username != "" || config.ClientID != "" || config.RefreshToken != "")
}

// maxQueryRetryFromEnv resolves the bulk query retry bound, preferring the
// environment override.
func maxQueryRetryFromEnv() int {
	raw := os.Getenv(constants.MaxQueryRetryEnvVar)
	if raw == "" {
		return constants.DefaultMaxQueryRetry
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return constants.DefaultMaxQueryRetry
	}

	return value
}

// isDevelopmentEnvironment checks if we're in a development environment.
func isDevelopmentEnvironment() bool {
	devMode := os.Getenv("CRMQ_DEV_MODE")

	return devMode == "true" || devMode == "1"
}

// createDiscoveryHTTPClient creates an HTTP client for auth endpoint discovery.
func createDiscoveryHTTPClient(skipTLS bool) (*http.Client, error) {
	httpClient := &http.Client{
		Timeout: constants.ShortHTTPTimeout,
	}

	if skipTLS {
		// Only allow insecure TLS in explicit development environments
		if !isDevelopmentEnvironment() {
			return nil, fmt.Errorf("%w (set CRMQ_DEV_MODE=true)", crmq.ErrSkipTLSOnlyInDev)
		}

		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 -- Protected by development environment check above
		}
	}

	return httpClient, nil
}

// fetchAuthURL fetches the API root and extracts the auth link.
func fetchAuthURL(ctx context.Context, httpClient *http.Client, apiEndpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiEndpoint+"/", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("getting root info: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf("%w with status %d: %s", crmq.ErrRootInfoRequestFailed, resp.StatusCode, string(body))
	}

	var rootInfo crmq.RootInfo

	err = json.NewDecoder(resp.Body).Decode(&rootInfo)
	if err != nil {
		return "", fmt.Errorf("parsing root info: %w", err)
	}

	authURL := rootInfo.Links["auth"].Href
	if authURL == "" {
		authURL = rootInfo.Links["login"].Href
	}

	if authURL == "" {
		return "", crmq.ErrNoAuthURL
	}

	return authURL, nil
}

func discoverAuthEndpoint(ctx context.Context, apiEndpoint string, skipTLS bool) (string, error) {
	httpClient, err := createDiscoveryHTTPClient(skipTLS)
	if err != nil {
		return "", err
	}

	return fetchAuthURL(ctx, httpClient, apiEndpoint)
}

// NewWithEndpoint creates a new client with just an API endpoint (no auth).
func NewWithEndpoint(ctx context.Context, endpoint string) (crmq.Client, error) {
	return New(ctx, &crmq.Config{
		APIEndpoint: endpoint,
	})
}

// NewWithToken creates a new client with an API endpoint and access token.
func NewWithToken(ctx context.Context, endpoint, token string) (crmq.Client, error) {
	return New(ctx, &crmq.Config{
		APIEndpoint: endpoint,
		AccessToken: token,
	})
}

// NewWithClientCredentials creates a new client using OAuth2 client credentials.
func NewWithClientCredentials(ctx context.Context, endpoint, clientID, clientSecret string) (crmq.Client, error) {
	return New(ctx, &crmq.Config{
		APIEndpoint:  endpoint,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// NewWithPassword creates a new client using username/password authentication.
func NewWithPassword(ctx context.Context, endpoint, username, password string) (crmq.Client, error) {
	return New(ctx, &crmq.Config{
		APIEndpoint: endpoint,
		Username:    username,
		Password:    password,
	})
}
