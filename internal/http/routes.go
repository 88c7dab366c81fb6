package httpx

import (
	"log/slog"
	"net/http"

	"github.com/itcache/portal/internal/guard"
	"github.com/itcache/portal/internal/ports"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	// Rules is the route-guard policy applied to every request.
	Rules *guard.Rules
	// ClientFactory builds the request-scoped identity client.
	ClientFactory ClientFactory
	Profiles      ports.ProfileStore
	// SSO is optional; the code-flow routes register only when set.
	SSO ports.SSOProvider

	// SessionCookie is the session cookie name.
	SessionCookie string
	// Cookie carries the base options for every cookie write.
	Cookie ports.CookieOptions
	// SSORedirectURL is the registered IdP callback URL (used when SSO is set).
	SSORedirectURL string
	// AllowedHeaders is the upstream header allow-list; empty means the
	// default of Content-Range only.
	AllowedHeaders []string

	Logger *slog.Logger
}

// NewRouter wires the handlers behind the guard pipeline: logging, panic
// recovery, identity attachment, then route gating.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		LoginPath: services.Rules.LoginPath(),
		Logger:    services.Logger,
	}
	themeHandlers := &ThemeHandlers{
		Profiles: services.Profiles,
		Logger:   services.Logger,
	}

	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("HEAD /healthz", healthz)

	mux.Handle("POST /auth/login", http.HandlerFunc(authHandlers.Login))
	mux.Handle("POST /auth/create-account", http.HandlerFunc(authHandlers.CreateAccount))
	mux.Handle("POST /auth/logout", http.HandlerFunc(authHandlers.Logout))

	mux.Handle("GET /api/theme", http.HandlerFunc(themeHandlers.Get))
	mux.Handle("PUT /api/theme", http.HandlerFunc(themeHandlers.Update))

	if services.SSO != nil {
		ssoHandlers := &SSOHandlers{
			Provider:      services.SSO,
			SessionCookie: services.SessionCookie,
			Cookie:        services.Cookie,
			RedirectURL:   services.SSORedirectURL,
			HomePath:      services.Rules.HomePath(),
			Logger:        services.Logger,
		}
		mux.Handle("GET /auth/sso/login", http.HandlerFunc(ssoHandlers.Begin))
		mux.Handle("GET /auth/callback", http.HandlerFunc(ssoHandlers.Callback))
	}

	pipeline := Sequence(
		Logging(services.Logger),
		Recover(services.Logger),
		WithIdentity(services.ClientFactory, services.Cookie),
		Authenticate(services.Rules, services.AllowedHeaders, services.Logger),
	)
	return pipeline(mux)
}

// healthz answers liveness probes. HEAD gets headers only.
func healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
