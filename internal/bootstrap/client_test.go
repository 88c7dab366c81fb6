package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itcache/portal/config"
	"github.com/itcache/portal/internal/domain/profile"
	"github.com/itcache/portal/internal/guard"
	mocks "github.com/itcache/portal/internal/mocks/auth"
	"github.com/itcache/portal/internal/state"
)

func clientAppConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	cfg.Auth = config.AuthConfig{
		Mode:          config.AuthModeMock,
		SessionCookie: "portal-session",
		DevAuth: config.DevAuthConfig{
			UserID:   "dev-user",
			Email:    "dev@example.com",
			Password: "dev-password",
		},
	}
	cfg.Routes = config.RouteRules{
		ProtectedPrefixes: []string{"/companies", "/admin"},
		AuthEntryPaths:    []string{"/login", "/create-account"},
		AdminPrefix:       "/admin",
		LoginPath:         "/login",
		HomePath:          "/",
	}
	return cfg
}

func newClientRuntime(t *testing.T, devicePath string, profiles *mocks.MemoryProfileStore) *ClientRuntime {
	t.Helper()
	rt, err := NewClientRuntime(ClientDeps{
		Config:     clientAppConfig(),
		Profiles:   profiles,
		Roles:      &mocks.StaticRoleDirectory{Roles: map[string]string{"admin": "role-admin"}},
		DevicePath: devicePath,
	})
	require.NoError(t, err)
	t.Cleanup(rt.Auth.Stop)
	return rt
}

func TestNewClientRuntime_SignInFlow(t *testing.T) {
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(profile.Profile{UserID: "dev-user", RoleID: "role-9", Theme: profile.ThemeDark})
	rt := newClientRuntime(t, filepath.Join(t.TempDir(), "device.json"), profiles)

	require.NoError(t, rt.Auth.Start(context.Background()))
	assert.Equal(t, state.PhaseAnonymous, rt.Auth.Current().Phase)

	d, err := rt.Guard.Decide(context.Background(), rt.Auth.Current(), "/companies")
	require.NoError(t, err)
	assert.True(t, d.Redirect)
	assert.Equal(t, "/login", d.Location)

	user, err := rt.Auth.SignIn(context.Background(), "dev@example.com", "dev-password")
	require.NoError(t, err)
	assert.Equal(t, "dev-user", user.ID)
	assert.Equal(t, "role-9", user.Role)

	d, err = rt.Guard.Decide(context.Background(), rt.Auth.Current(), "/companies")
	require.NoError(t, err)
	assert.Equal(t, guard.Proceed(), d)

	rt.Theme.Initialize(rt.Auth.Current())
	assert.Equal(t, profile.ThemeDark, rt.Theme.Current())
}

func TestNewClientRuntime_SessionSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(profile.Profile{UserID: "dev-user", RoleID: "role-9", Theme: profile.ThemeLight})

	rt1 := newClientRuntime(t, path, profiles)
	require.NoError(t, rt1.Auth.Start(context.Background()))
	_, err := rt1.Auth.SignIn(context.Background(), "dev@example.com", "dev-password")
	require.NoError(t, err)
	rt1.Auth.Stop()

	// A fresh runtime over the same device store resumes the session.
	rt2 := newClientRuntime(t, path, profiles)
	require.NoError(t, rt2.Auth.Start(context.Background()))
	st := rt2.Auth.Current()
	require.True(t, st.Authenticated())
	assert.Equal(t, "dev-user", st.User.ID)
}

func TestNewClientRuntime_SignOutClearsPersistedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(profile.Profile{UserID: "dev-user", Theme: profile.ThemeLight})

	rt1 := newClientRuntime(t, path, profiles)
	require.NoError(t, rt1.Auth.Start(context.Background()))
	_, err := rt1.Auth.SignIn(context.Background(), "dev@example.com", "dev-password")
	require.NoError(t, err)
	require.NoError(t, rt1.Auth.SignOut(context.Background()))
	rt1.Auth.Stop()

	rt2 := newClientRuntime(t, path, profiles)
	require.NoError(t, rt2.Auth.Start(context.Background()))
	assert.Equal(t, state.PhaseAnonymous, rt2.Auth.Current().Phase)
}

func TestNewClientRuntime_BadConfigSurfaces(t *testing.T) {
	cfg := clientAppConfig()
	cfg.Auth.DevAuth = config.DevAuthConfig{}

	_, err := NewClientRuntime(ClientDeps{
		Config:     cfg,
		Profiles:   mocks.NewMemoryProfileStore(),
		Roles:      &mocks.StaticRoleDirectory{},
		DevicePath: filepath.Join(t.TempDir(), "device.json"),
	})
	require.Error(t, err)
}
