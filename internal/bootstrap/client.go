package bootstrap

import (
	"log/slog"

	"github.com/itcache/portal/config"
	"github.com/itcache/portal/internal/adapters/localstore"
	"github.com/itcache/portal/internal/guard"
	"github.com/itcache/portal/internal/ports"
	"github.com/itcache/portal/internal/state"
)

// ClientDeps carries what the client-side runtime needs. Profiles and Roles
// back identity enrichment and the admin role gate.
type ClientDeps struct {
	Config   *config.AppConfig
	Profiles ports.ProfileStore
	Roles    ports.RoleDirectory

	// DevicePath overrides the device-store location; empty means the
	// per-user config directory.
	DevicePath string
	Navigate   ports.Navigator
	Logger     *slog.Logger
}

// ClientRuntime is the assembled client-side stack: an identity client bound
// to a device-persisted cookie jar, the observable auth and theme stores,
// and the navigation guard.
type ClientRuntime struct {
	Client ports.IdentityClient
	Auth   *state.AuthStore
	Theme  *state.ThemeStore
	Guard  *guard.ClientGuard
	Device *localstore.Store
}

// NewClientRuntime wires the client-side stack for the configured auth mode.
// The device store doubles as the cookie jar, so a session survives process
// restarts. Call Auth.Start to resolve the persisted session, then
// Theme.Initialize with the resulting state.
func NewClientRuntime(deps ClientDeps) (*ClientRuntime, error) {
	device, err := localstore.Open(deps.DevicePath)
	if err != nil {
		return nil, err
	}

	factory, err := NewClientFactory(AuthDeps{Auth: deps.Config.Auth, HTTP: deps.Config.HTTP})
	if err != nil {
		return nil, err
	}
	client := factory(&deviceCookieJar{store: device})

	auth := state.NewAuthStore(state.AuthStoreConfig{
		Client:    client,
		Profiles:  deps.Profiles,
		Navigate:  deps.Navigate,
		LoginPath: deps.Config.Routes.LoginPath,
		Logger:    deps.Logger,
	})
	theme := state.NewThemeStore(state.ThemeStoreConfig{
		Profiles: deps.Profiles,
		Device:   device,
		Logger:   deps.Logger,
	})

	return &ClientRuntime{
		Client: client,
		Auth:   auth,
		Theme:  theme,
		Guard:  guard.NewClientGuard(guard.NewRules(deps.Config.Routes), deps.Roles),
		Device: device,
	}, nil
}

const cookieKeyPrefix = "cookie."

// deviceCookieJar persists the identity client's cookies in the device store.
// Cookie options are dropped: there is no browser to scope them for.
type deviceCookieJar struct {
	store *localstore.Store
}

var _ ports.CookieJar = (*deviceCookieJar)(nil)

func (j *deviceCookieJar) Get(name string) (string, bool) {
	v, ok := j.store.Get(cookieKeyPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (j *deviceCookieJar) Set(name, value string, _ ports.CookieOptions) {
	// The jar interface has no error channel; a failed write surfaces on
	// the next restart as a missing session.
	_ = j.store.Set(cookieKeyPrefix+name, value)
}

func (j *deviceCookieJar) Delete(name string, _ ports.CookieOptions) {
	_ = j.store.Set(cookieKeyPrefix+name, "")
}
