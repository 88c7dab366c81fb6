package sso

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/ports"
)

type discoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()

	issuer := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		doc := discoveryDocument{
			Issuer:                issuer,
			AuthorizationEndpoint: "https://example.com/auth",
			TokenEndpoint:         "https://example.com/token",
			UserinfoEndpoint:      "https://example.com/userinfo",
			JwksURI:               "https://example.com/jwks",
		}
		_ = json.NewEncoder(w).Encode(doc)
	}))
	issuer = server.URL
	t.Cleanup(server.Close)
	return server
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()

	server := newDiscoveryServer(t)
	provider, err := New(Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Scope:        "openid profile email",
		DiscoveryURL: server.URL,
	})
	require.NoError(t, err)
	return provider
}

func TestNew_DiscoversEndpoints(t *testing.T) {
	provider := newTestProvider(t)
	assert.Equal(t, "https://example.com/auth", provider.config.Endpoint.AuthURL)
	assert.Equal(t, "https://example.com/token", provider.config.Endpoint.TokenURL)
}

func TestNew_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"missing client id", Config{ClientSecret: "s", RedirectURL: "http://x/cb", DiscoveryURL: "http://x"}},
		{"missing client secret", Config{ClientID: "c", RedirectURL: "http://x/cb", DiscoveryURL: "http://x"}},
		{"missing redirect URL", Config{ClientID: "c", ClientSecret: "s", DiscoveryURL: "http://x"}},
		{"missing discovery URL", Config{ClientID: "c", ClientSecret: "s", RedirectURL: "http://x/cb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			require.Error(t, err)
			assert.True(t, apperrors.IsConfig(err))
		})
	}
}

func TestBegin(t *testing.T) {
	provider := newTestProvider(t)

	authURL, state, nonce, err := provider.Begin(context.Background(), ports.SSOBeginInput{
		RedirectURL: "http://localhost:8080/auth/callback",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.NotEmpty(t, nonce)
	assert.Contains(t, authURL, "https://example.com/auth")
	assert.Contains(t, authURL, "client_id=test-client")
	assert.Contains(t, authURL, "state="+state)
	assert.Contains(t, authURL, "nonce="+nonce)
	assert.Contains(t, authURL, "response_type=code")
}

func TestBegin_FreshStatePerCall(t *testing.T) {
	provider := newTestProvider(t)
	in := ports.SSOBeginInput{RedirectURL: "http://localhost:8080/auth/callback"}

	_, state1, nonce1, err := provider.Begin(context.Background(), in)
	require.NoError(t, err)
	_, state2, nonce2, err := provider.Begin(context.Background(), in)
	require.NoError(t, err)

	assert.NotEqual(t, state1, state2)
	assert.NotEqual(t, nonce1, nonce2)
}

func TestBegin_EmptyRedirectURL(t *testing.T) {
	provider := newTestProvider(t)
	_, _, _, err := provider.Begin(context.Background(), ports.SSOBeginInput{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestExchange_InputValidation(t *testing.T) {
	provider := newTestProvider(t)

	_, _, err := provider.Exchange(context.Background(), ports.SSOExchangeInput{State: "s", Nonce: "n"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, _, err = provider.Exchange(context.Background(), ports.SSOExchangeInput{Code: "c", Nonce: "n"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestGenerateRandomString(t *testing.T) {
	for _, length := range []int{0, 1, 16, 32, 33} {
		s, err := generateRandomString(length)
		require.NoError(t, err)
		assert.Len(t, s, length)
	}
}
