package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmforce-io/crmq-client/internal/auth"
	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

func TestNew_RequiresConfig(t *testing.T) {
	client, err := New(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.ErrorIs(t, err, crmq.ErrConfigRequired)
}

func TestNew_RequiresEndpoint(t *testing.T) {
	client, err := New(context.Background(), &crmq.Config{})
	require.Error(t, err)
	assert.Nil(t, client)
	assert.ErrorIs(t, err, crmq.ErrAPIEndpointRequired)
}

func TestNew_InitializesSubClients(t *testing.T) {
	client, err := New(context.Background(), &crmq.Config{
		APIEndpoint: "https://api.example.com",
		AccessToken: "token",
	})
	require.NoError(t, err)
	assert.NotNil(t, client.Query())
	assert.NotNil(t, client.BulkQuery())
	assert.NotNil(t, client.Ingest())
	assert.NotNil(t, client.Tooling())
}

func TestClient_GetRootInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(crmq.RootInfo{
			Links: map[string]crmq.Link{
				"auth":  {Href: "https://auth.example.com"},
				"query": {Href: "/v1/query", Method: "GET"},
			},
		})
	}))
	defer server.Close()

	client, err := New(context.Background(), &crmq.Config{APIEndpoint: server.URL})
	require.NoError(t, err)

	rootInfo, err := client.GetRootInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com", rootInfo.Links["auth"].Href)
	assert.Equal(t, "GET", rootInfo.Links["query"].Method)
}

func TestClient_GetToken(t *testing.T) {
	client, err := New(context.Background(), &crmq.Config{
		APIEndpoint: "https://api.example.com",
		AccessToken: "static-token",
	})
	require.NoError(t, err)

	token, err := client.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "static-token", token)
}

func TestClient_GetToken_NoTokenManager(t *testing.T) {
	client, err := New(context.Background(), &crmq.Config{
		APIEndpoint: "https://api.example.com",
	})
	require.NoError(t, err)

	_, err = client.GetToken(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTokenManagerConfigured)
}

func TestCreateTokenManager(t *testing.T) {
	tests := []struct {
		name     string
		config   *crmq.Config
		expected string
	}{
		{
			name:     "access token only is static",
			config:   &crmq.Config{AccessToken: "token"},
			expected: "static",
		},
		{
			name:     "access token with refresh token is oauth",
			config:   &crmq.Config{AccessToken: "token", RefreshToken: "refresh"},
			expected: "oauth",
		},
		{
			name:     "client credentials is oauth",
			config:   &crmq.Config{ClientID: "id", ClientSecret: "secret"},
			expected: "oauth",
		},
		{
			name:     "username and password is oauth",
			config:   &crmq.Config{Username: "user", Password: "pass"},
			expected: "oauth",
		},
		{
			name:     "no credentials is nil",
			config:   &crmq.Config{},
			expected: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := createTokenManager(tt.config)

			switch tt.expected {
			case "static":
				_, ok := manager.(*staticTokenManager)
				assert.True(t, ok)
			case "oauth":
				_, ok := manager.(*auth.OAuth2TokenManager)
				assert.True(t, ok)
			case "none":
				assert.Nil(t, manager)
			}
		})
	}
}

func TestStaticTokenManager_CannotRefresh(t *testing.T) {
	manager := &staticTokenManager{token: "token"}

	err := manager.RefreshToken(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStaticTokenCannotRefresh)
}
