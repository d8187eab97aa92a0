package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToken_IsExpired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    *Token
		expected bool
	}{
		{
			name: "valid token",
			token: &Token{
				AccessToken: "token",
				ExpiresAt:   time.Now().Add(time.Hour),
			},
			expected: false,
		},
		{
			name: "expired token",
			token: &Token{
				AccessToken: "token",
				ExpiresAt:   time.Now().Add(-time.Hour),
			},
			expected: true,
		},
		{
			name: "token expiring within buffer",
			token: &Token{
				AccessToken: "token",
				ExpiresAt:   time.Now().Add(10 * time.Second),
			},
			expected: true,
		},
		{
			name: "token without expiry never expires",
			token: &Token{
				AccessToken: "token",
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.token.IsExpired())
		})
	}
}

func TestTokenStore(t *testing.T) {
	t.Parallel()

	store := NewTokenStore()
	assert.Nil(t, store.Get())

	token := &Token{
		AccessToken: "test-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	store.Set(token)

	got := store.Get()
	assert.NotNil(t, got)
	assert.Equal(t, "test-token", got.AccessToken)

	store.Clear()
	assert.Nil(t, store.Get())
}
