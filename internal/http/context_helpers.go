package httpx

import (
	"context"

	domainauth "github.com/itcache/portal/internal/domain/auth"
	"github.com/itcache/portal/internal/ports"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// clientKey carries the request-scoped identity client attached by WithIdentity.
type clientKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the resolved session from the request context and
// a boolean indicating presence. Absence means the request is anonymous.
func SessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// SetClientInContext returns a child context carrying the request-scoped
// identity client.
func SetClientInContext(ctx context.Context, client ports.IdentityClient) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFromContext returns the identity client bound to this request's
// cookie jar, or (nil, false) when WithIdentity did not run.
func ClientFromContext(ctx context.Context) (ports.IdentityClient, bool) {
	if client, ok := ctx.Value(clientKey{}).(ports.IdentityClient); ok && client != nil {
		return client, true
	}
	return nil, false
}
