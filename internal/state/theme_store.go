package state

import (
	"context"
	"log/slog"

	"github.com/itcache/portal/internal/domain/profile"
	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/ports"
)

// deviceThemeKey is the device-store key holding the anonymous theme choice.
const deviceThemeKey = "theme"

// ThemeStoreConfig wires a ThemeStore's collaborators.
type ThemeStoreConfig struct {
	Profiles ports.ProfileStore
	Device   ports.DeviceStore
	Logger   *slog.Logger
}

// ThemeStore tracks the display theme. Authenticated users own their
// preference on the profile row; anonymous users keep a device-local value.
// Updates are optimistic: the observable value changes first, persistence
// follows and never rolls the value back.
type ThemeStore struct {
	profiles ports.ProfileStore
	device   ports.DeviceStore
	logger   *slog.Logger

	theme *Value[profile.Theme]
}

func NewThemeStore(cfg ThemeStoreConfig) *ThemeStore {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ThemeStore{
		profiles: cfg.Profiles,
		device:   cfg.Device,
		logger:   logger.With("component", "theme_store"),
		theme:    NewValue(profile.DefaultTheme),
	}
}

// Theme returns the observable theme container.
func (s *ThemeStore) Theme() *Value[profile.Theme] { return s.theme }

// Current returns the theme at this instant.
func (s *ThemeStore) Current() profile.Theme { return s.theme.Get() }

// Initialize adopts the stored preference for the given identity state.
// Authenticated: the profile row value is authoritative and overwrites any
// local fallback. Anonymous: the device value applies when present and
// valid. Everything else keeps the default.
func (s *ThemeStore) Initialize(auth AuthState) {
	if auth.Authenticated() {
		if auth.User.Theme.Valid() {
			s.theme.Set(auth.User.Theme)
		} else {
			s.theme.Set(profile.DefaultTheme)
		}
		return
	}

	if s.device != nil {
		if raw, ok := s.device.Get(deviceThemeKey); ok {
			if t := profile.Theme(raw); t.Valid() {
				s.theme.Set(t)
				return
			}
		}
	}
	s.theme.Set(profile.DefaultTheme)
}

// SetTheme applies the theme optimistically, then persists it to wherever
// the current identity owns its preference. An authenticated persist failure
// is logged as preference_persist and the optimistic value stands; an
// anonymous device write failure is returned.
func (s *ThemeStore) SetTheme(ctx context.Context, auth AuthState, theme profile.Theme) error {
	if !theme.Valid() {
		return apperrors.Validation("invalid theme " + string(theme))
	}

	s.theme.Set(theme)

	if auth.Authenticated() {
		go func() {
			if err := s.profiles.UpdateTheme(context.WithoutCancel(ctx), auth.User.ID, theme); err != nil {
				s.logger.Error("theme persist failed",
					"err", apperrors.PreferencePersist(err),
					"user_id", auth.User.ID)
			}
		}()
		return nil
	}

	if s.device == nil {
		return nil
	}
	if err := s.device.Set(deviceThemeKey, string(theme)); err != nil {
		return apperrors.PreferencePersist(err)
	}
	return nil
}
