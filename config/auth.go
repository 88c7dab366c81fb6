package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode selects which identity-client adapter the application wires.
type AuthMode string

const (
	// AuthModePassword authenticates against the identity provider's
	// password-grant endpoint. This is the default.
	AuthModePassword AuthMode = "password"
	// AuthModeSSO authenticates via an OIDC code flow.
	AuthModeSSO AuthMode = "sso"
	// AuthModeMock uses a config-driven in-memory identity client
	// (development and testing only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "password", "sso", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, sso, mock)", v)
	}
}

// ProviderConfig identifies the external identity provider. Both values are
// required; absence is a fatal startup condition.
type ProviderConfig struct {
	// URL is the identity provider base URL.
	URL string `env:"URL,required"`

	// PublicKey is the provider's public API key, sent with every request.
	PublicKey string `env:"PUBLIC_KEY,required"`
}

// SSOConfig contains OIDC code-flow configuration (used when Mode=sso).
type SSOConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls the mock identity client used when Mode=mock.
type DevAuthConfig struct {
	UserID   string `env:"USER_ID"  envDefault:"dev-user"`
	Email    string `env:"EMAIL"    envDefault:"dev@example.com"`
	Password string `env:"PASSWORD" envDefault:"dev-password"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity-client adapter to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// Provider identifies the identity provider (always required).
	Provider ProviderConfig `envPrefix:"PROVIDER_"`

	// SSO configuration (used when Mode=sso).
	SSO SSOConfig `envPrefix:"SSO_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// SessionCookie is the name of the session cookie.
	SessionCookie string `env:"SESSION_COOKIE" envDefault:"portal-session"`

	// ProviderTimeout bounds every identity-provider round-trip so a
	// non-responding provider degrades the guard instead of hanging the
	// request.
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`

	// SessionCacheTTL caps how long a resolved session may be served from
	// cache before revalidating against the provider.
	SessionCacheTTL time.Duration `env:"SESSION_CACHE_TTL" envDefault:"5m"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.ProviderTimeout <= 0 {
		a.ProviderTimeout = 10 * time.Second
	}
	if a.SessionCacheTTL <= 0 {
		a.SessionCacheTTL = 5 * time.Minute
	}
}
