package ports

// Package ports defines interfaces (hexagonal ports) for identity, profile,
// and preference behavior. Implementations live in internal/adapters;
// orchestration in internal/state and internal/http.

import (
	"context"
	"net/http"

	domainauth "github.com/itcache/portal/internal/domain/auth"
	"github.com/itcache/portal/internal/domain/profile"
)

// CookieOptions are forwarded verbatim to the underlying cookie transport.
type CookieOptions struct {
	Path     string
	MaxAge   int
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
}

// CookieJar adapts a single request/response pair's cookies for the identity
// client. Implementations must scope every mutation to that one exchange; no
// batching or cross-request leakage.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string, opts CookieOptions)
	Delete(name string, opts CookieOptions)
}

// SignUpResult carries provisional account data returned by SignUp. The
// provider may require confirmation, so a result does not imply an active
// session.
type SignUpResult struct {
	UserID           string
	Email            string
	ConfirmationSent bool
}

// Unsubscribe removes a previously registered auth-change listener.
type Unsubscribe func()

// IdentityClient wraps the identity provider. It is the trust boundary: all
// authentication decisions ultimately resolve through it.
//
// GetSession and GetUser return (nil, nil) for the no-session case; absence
// is a normal value, not an error. Subscribe delivers exactly one event per
// state transition and none for refreshes that keep the same subject.
type IdentityClient interface {
	// SignInWithPassword authenticates with credentials. On failure it
	// returns an auth-kind error with a user-displayable reason and leaves
	// cached state untouched.
	SignInWithPassword(ctx context.Context, email, password string) (domainauth.Session, error)

	// SignUp registers a new account. It does not establish a session.
	SignUp(ctx context.Context, email, password string) (SignUpResult, error)

	// SignOut clears the provider-side session. Local cached identity state
	// is cleared synchronously before any network call returns.
	SignOut(ctx context.Context) error

	GetSession(ctx context.Context) (*domainauth.Session, error)
	GetUser(ctx context.Context) (*domainauth.Identity, error)

	Subscribe(fn func(domainauth.Event)) Unsubscribe
}

// HeaderRecorder is implemented by identity clients that accumulate upstream
// response headers. The server guard copies an allow-listed subset of these
// onto the outgoing response.
type HeaderRecorder interface {
	UpstreamHeaders() http.Header
}

// ProfileStore reads and updates the application-owned profile row.
type ProfileStore interface {
	// GetByUserID returns the profile row for the given subject, or a
	// not-found kind error when no row exists.
	GetByUserID(ctx context.Context, userID string) (profile.Profile, error)

	// UpdateTheme persists the theme preference on the profile row.
	UpdateTheme(ctx context.Context, userID string, theme profile.Theme) error
}

// RoleDirectory resolves role names to backend-assigned ids.
type RoleDirectory interface {
	IDByName(ctx context.Context, name string) (string, error)
}

// DeviceStore is local, identity-less device storage used for preferences of
// anonymous users.
type DeviceStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// SessionCache caches resolved sessions so repeated guard runs can skip the
// provider round-trip. Entries expire with the session and are invalidated
// on sign-out.
type SessionCache interface {
	Put(ctx context.Context, sess domainauth.Session) error
	// Lookup returns the cached session for an access token, or (nil, nil)
	// on miss.
	Lookup(ctx context.Context, accessToken string) (*domainauth.Session, error)
	Invalidate(ctx context.Context, accessToken string) error
}

// Navigator performs a client-side navigation as an observable side effect.
type Navigator func(location string)
