package guard

// Package guard holds route-gating policy: path classification shared by the
// server pipeline and the client-side navigation check, and the pure
// client-side decision function.

import (
	"net/http"
	"strings"

	"github.com/itcache/portal/config"
)

// Decision is the outcome of a gating check. Redirects are control flow, not
// errors; all auth-driven redirects use 303 See Other.
type Decision struct {
	Redirect bool
	Location string
	Status   int
}

// Proceed lets the navigation continue untouched.
func Proceed() Decision { return Decision{} }

// RedirectTo produces a 303 redirect decision.
func RedirectTo(location string) Decision {
	return Decision{Redirect: true, Location: location, Status: http.StatusSeeOther}
}

// Rules classifies request paths against the configured route policy.
type Rules struct {
	protected   []string
	authEntry   map[string]struct{}
	adminPrefix string
	loginPath   string
	homePath    string
}

func NewRules(cfg config.RouteRules) *Rules {
	cfg.Sanitize()
	entry := make(map[string]struct{}, len(cfg.AuthEntryPaths))
	for _, p := range cfg.AuthEntryPaths {
		entry[p] = struct{}{}
	}
	return &Rules{
		protected:   cfg.ProtectedPrefixes,
		authEntry:   entry,
		adminPrefix: cfg.AdminPrefix,
		loginPath:   cfg.LoginPath,
		homePath:    cfg.HomePath,
	}
}

// hasPrefix reports whether path falls under prefix at a path-segment
// boundary, so "/admin" covers "/admin" and "/admin/x" but not "/administer".
func hasPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// IsProtected reports whether the path requires an active session.
func (r *Rules) IsProtected(path string) bool {
	for _, p := range r.protected {
		if hasPrefix(path, p) {
			return true
		}
	}
	return false
}

// IsAuthEntry reports whether the path is a sign-in/sign-up page.
func (r *Rules) IsAuthEntry(path string) bool {
	_, ok := r.authEntry[path]
	return ok
}

// IsAdminArea reports whether the path additionally requires the admin role.
func (r *Rules) IsAdminArea(path string) bool {
	return hasPrefix(path, r.adminPrefix)
}

func (r *Rules) LoginPath() string { return r.loginPath }
func (r *Rules) HomePath() string  { return r.homePath }

// ForRequest is the server-side policy: a protected path with no session
// redirects to login, everything else proceeds. Role checks happen
// client-side where the enriched user is available.
func (r *Rules) ForRequest(path string, hasSession bool) Decision {
	if r.IsProtected(path) && !hasSession {
		return RedirectTo(r.loginPath)
	}
	return Proceed()
}
