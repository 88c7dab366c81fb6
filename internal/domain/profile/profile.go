package profile

// Package profile contains domain types for the application-owned profile
// record joined to a provider identity by user id.

// Theme is a user-visible display preference stored either on the profile
// row (authenticated) or on the local device (anonymous).
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme is the baseline used before any stored preference is adopted.
const DefaultTheme = ThemeLight

// Valid reports whether t is one of the defined theme values.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark:
		return true
	}
	return false
}

// Profile is the application-owned row keyed by the provider's user id.
// RoleID and Theme are only meaningful once the row lookup succeeds; a
// provider-authenticated subject without a profile row is a data-integrity
// fault, not a valid anonymous state.
type Profile struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
	Theme  Theme  `json:"theme_preference"`
}
