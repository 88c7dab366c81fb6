package config

// RouteRules enumerates the route-guard policy as configuration rather than
// hardcoded paths: which prefixes require a session, which paths are
// auth-entry pages, and where redirects land.
type RouteRules struct {
	// ProtectedPrefixes require an active session.
	ProtectedPrefixes []string `env:"PROTECTED_PREFIXES" envDefault:"/companies;/admin" envSeparator:";"`

	// AuthEntryPaths are the sign-in/sign-up pages reachable without a
	// session.
	AuthEntryPaths []string `env:"AUTH_ENTRY_PATHS" envDefault:"/login;/create-account" envSeparator:";"`

	// AdminPrefix additionally requires the admin role.
	AdminPrefix string `env:"ADMIN_PREFIX" envDefault:"/admin"`

	// LoginPath is where unauthenticated requests are redirected.
	LoginPath string `env:"LOGIN_PATH" envDefault:"/login"`

	// HomePath is where disallowed authenticated requests are redirected.
	HomePath string `env:"HOME_PATH" envDefault:"/"`
}

// Sanitize applies guardrails to route policy values.
func (r *RouteRules) Sanitize() {
	if r.LoginPath == "" {
		r.LoginPath = "/login"
	}
	if r.HomePath == "" {
		r.HomePath = "/"
	}
}
