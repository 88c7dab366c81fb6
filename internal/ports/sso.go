package ports

import (
	"context"

	domainauth "github.com/itcache/portal/internal/domain/auth"
)

// SSOBeginInput carries inputs for initiating a single sign-on flow.
type SSOBeginInput struct {
	RedirectURL string
}

// SSOExchangeInput groups parameters for the code/token exchange.
type SSOExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SSOProvider initiates and completes a code-flow login against an external
// IdP. Used only when the sso auth mode is configured; the resulting session
// travels through the same cookie bridge as password sessions.
type SSOProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an
	// opaque state, and a nonce.
	Begin(ctx context.Context, in SSOBeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the flow, verifying state and nonce, and returns
	// the session token bundle plus the authenticated identity.
	Exchange(ctx context.Context, in SSOExchangeInput) (domainauth.Session, domainauth.Identity, error)
}
