package bootstrap

import (
	"net/http"

	"github.com/itcache/portal/config"
	"github.com/itcache/portal/internal/adapters/devauth"
	"github.com/itcache/portal/internal/adapters/gotrue"
	"github.com/itcache/portal/internal/adapters/sso"
	apperrors "github.com/itcache/portal/internal/errors"
	httpx "github.com/itcache/portal/internal/http"
	"github.com/itcache/portal/internal/ports"
)

// AuthDeps carries what the identity wiring needs.
type AuthDeps struct {
	Auth  config.AuthConfig
	HTTP  config.HTTPConfig
	Cache ports.SessionCache
}

// CookieDefaults derives the base cookie options shared by every adapter.
func CookieDefaults(cfg config.HTTPConfig) ports.CookieOptions {
	return ports.CookieOptions{
		Path:     "/",
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewClientFactory builds the per-request identity client constructor for the
// configured auth mode. Configuration problems are fatal here, at startup,
// so the factory itself cannot fail per request.
func NewClientFactory(deps AuthDeps) (httpx.ClientFactory, error) {
	cookie := CookieDefaults(deps.HTTP)

	switch deps.Auth.Mode {
	case config.AuthModePassword, config.AuthModeSSO:
		// The SSO mode establishes sessions through the code-flow handlers
		// but resolves them against the same provider surface.
		cfg := gotrue.Config{
			URL:        deps.Auth.Provider.URL,
			PublicKey:  deps.Auth.Provider.PublicKey,
			CookieName: deps.Auth.SessionCookie,
			Cookie:     cookie,
			Timeout:    deps.Auth.ProviderTimeout,
			Cache:      deps.Cache,
		}
		if cfg.URL == "" {
			return nil, apperrors.Config("auth: provider URL is required")
		}
		if cfg.PublicKey == "" {
			return nil, apperrors.Config("auth: provider public key is required")
		}
		return func(jar ports.CookieJar) ports.IdentityClient {
			return gotrue.New(cfg, jar)
		}, nil

	case config.AuthModeMock:
		cfg := devauth.Config{
			UserID:     deps.Auth.DevAuth.UserID,
			Email:      deps.Auth.DevAuth.Email,
			Password:   deps.Auth.DevAuth.Password,
			CookieName: deps.Auth.SessionCookie,
			Cookie:     cookie,
		}
		// Validate once so per-request construction cannot fail.
		if _, err := devauth.New(cfg, nil); err != nil {
			return nil, err
		}
		return func(jar ports.CookieJar) ports.IdentityClient {
			client, _ := devauth.New(cfg, jar)
			return client
		}, nil

	default:
		return nil, apperrors.Configf("auth: unknown mode %q", deps.Auth.Mode)
	}
}

// NewSSOProvider builds the OIDC code-flow provider, or nil when the sso mode
// is not configured.
func NewSSOProvider(cfg config.AuthConfig) (ports.SSOProvider, error) {
	if cfg.Mode != config.AuthModeSSO {
		return nil, nil
	}
	return sso.New(sso.Config{
		ClientID:     cfg.SSO.ClientID,
		ClientSecret: cfg.SSO.ClientSecret,
		RedirectURL:  cfg.SSO.RedirectURL,
		Scope:        cfg.SSO.Scope,
		DiscoveryURL: cfg.SSO.DiscoveryURL,
	})
}
