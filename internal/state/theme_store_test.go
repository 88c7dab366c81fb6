package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/itcache/portal/internal/domain/auth"
	"github.com/itcache/portal/internal/domain/profile"
	apperrors "github.com/itcache/portal/internal/errors"
	mocks "github.com/itcache/portal/internal/mocks/auth"
)

func authenticatedState(userID string, theme profile.Theme) AuthState {
	return AuthState{
		Phase: PhaseAuthenticated,
		User:  &domainauth.User{ID: userID, Role: "role-1", Theme: theme},
	}
}

func TestThemeStore_DefaultsToLight(t *testing.T) {
	store := NewThemeStore(ThemeStoreConfig{
		Profiles: mocks.NewMemoryProfileStore(),
		Device:   mocks.NewMemoryDeviceStore(),
	})
	assert.Equal(t, profile.ThemeLight, store.Current())
}

func TestThemeStore_Initialize_AnonymousUsesDeviceValue(t *testing.T) {
	device := mocks.NewMemoryDeviceStore()
	require.NoError(t, device.Set("theme", "dark"))

	store := NewThemeStore(ThemeStoreConfig{Profiles: mocks.NewMemoryProfileStore(), Device: device})
	store.Initialize(AuthState{Phase: PhaseAnonymous})
	assert.Equal(t, profile.ThemeDark, store.Current())
}

func TestThemeStore_Initialize_AnonymousIgnoresGarbageDeviceValue(t *testing.T) {
	device := mocks.NewMemoryDeviceStore()
	require.NoError(t, device.Set("theme", "solarized"))

	store := NewThemeStore(ThemeStoreConfig{Profiles: mocks.NewMemoryProfileStore(), Device: device})
	store.Initialize(AuthState{Phase: PhaseAnonymous})
	assert.Equal(t, profile.ThemeLight, store.Current())
}

func TestThemeStore_Initialize_ProfileValueOverridesDevice(t *testing.T) {
	device := mocks.NewMemoryDeviceStore()
	require.NoError(t, device.Set("theme", "dark"))

	store := NewThemeStore(ThemeStoreConfig{Profiles: mocks.NewMemoryProfileStore(), Device: device})
	store.Initialize(authenticatedState("user-1", profile.ThemeLight))

	// The backend value is authoritative for an authenticated identity even
	// when the device carries an older local fallback.
	assert.Equal(t, profile.ThemeLight, store.Current())
}

func TestThemeStore_SetTheme_AnonymousWritesDevice(t *testing.T) {
	device := mocks.NewMemoryDeviceStore()
	store := NewThemeStore(ThemeStoreConfig{Profiles: mocks.NewMemoryProfileStore(), Device: device})

	require.NoError(t, store.SetTheme(context.Background(), AuthState{Phase: PhaseAnonymous}, profile.ThemeDark))

	assert.Equal(t, profile.ThemeDark, store.Current())
	got, ok := device.Get("theme")
	require.True(t, ok)
	assert.Equal(t, "dark", got)
}

func TestThemeStore_SetTheme_AnonymousDeviceFailureKeepsOptimisticValue(t *testing.T) {
	device := mocks.NewMemoryDeviceStore()
	device.SetErr = assert.AnError

	store := NewThemeStore(ThemeStoreConfig{Profiles: mocks.NewMemoryProfileStore(), Device: device})
	err := store.SetTheme(context.Background(), AuthState{Phase: PhaseAnonymous}, profile.ThemeDark)
	require.Error(t, err)
	assert.True(t, apperrors.IsPreferencePersist(err))
	assert.Equal(t, profile.ThemeDark, store.Current())
}

func TestThemeStore_SetTheme_AuthenticatedPersistsToProfile(t *testing.T) {
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(profile.Profile{UserID: "user-1", Theme: profile.ThemeLight})

	store := NewThemeStore(ThemeStoreConfig{Profiles: profiles, Device: mocks.NewMemoryDeviceStore()})
	auth := authenticatedState("user-1", profile.ThemeLight)

	require.NoError(t, store.SetTheme(context.Background(), auth, profile.ThemeDark))
	assert.Equal(t, profile.ThemeDark, store.Current())

	require.Eventually(t, func() bool {
		p, err := profiles.GetByUserID(context.Background(), "user-1")
		return err == nil && p.Theme == profile.ThemeDark
	}, time.Second, 5*time.Millisecond)
}

func TestThemeStore_SetTheme_AuthenticatedDoesNotTouchDevice(t *testing.T) {
	device := mocks.NewMemoryDeviceStore()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(profile.Profile{UserID: "user-1", Theme: profile.ThemeLight})

	store := NewThemeStore(ThemeStoreConfig{Profiles: profiles, Device: device})
	require.NoError(t, store.SetTheme(context.Background(), authenticatedState("user-1", profile.ThemeLight), profile.ThemeDark))

	_, ok := device.Get("theme")
	assert.False(t, ok)
}

func TestThemeStore_SetTheme_PersistFailureNotRolledBack(t *testing.T) {
	profiles := mocks.NewMemoryProfileStore()
	profiles.UpdateErr = assert.AnError

	store := NewThemeStore(ThemeStoreConfig{Profiles: profiles, Device: mocks.NewMemoryDeviceStore()})
	require.NoError(t, store.SetTheme(context.Background(), authenticatedState("user-1", profile.ThemeLight), profile.ThemeDark))

	require.Never(t, func() bool {
		return store.Current() != profile.ThemeDark
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestThemeStore_SetTheme_RejectsInvalidValue(t *testing.T) {
	store := NewThemeStore(ThemeStoreConfig{
		Profiles: mocks.NewMemoryProfileStore(),
		Device:   mocks.NewMemoryDeviceStore(),
	})

	err := store.SetTheme(context.Background(), AuthState{Phase: PhaseAnonymous}, profile.Theme("neon"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, profile.ThemeLight, store.Current())
}
