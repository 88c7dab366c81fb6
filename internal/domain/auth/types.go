package auth

// Package auth contains domain-level types for identity and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/itcache/portal/internal/domain/profile"
)

// AdminRoleName is the role name gating the admin area. The matching role id
// is assigned by the backend at provisioning time and must be resolved by
// lookup, never hardcoded.
const AdminRoleName = "admin"

// Session is the token bundle issued by the identity provider. The cookie
// bridge persists only its serialized representation; nothing in this
// application interprets the tokens themselves.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
}

// Expired reports whether the session's access token has passed its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Identity is the authenticated subject as reported by the identity
// provider, before profile enrichment.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// User is the enriched identity the application works with: the provider
// subject joined with its profile row.
type User struct {
	ID    string        `json:"id"`
	Email string        `json:"email"`
	Role  string        `json:"role_id"`
	Theme profile.Theme `json:"theme_preference"`
}

// EventKind classifies identity state transitions delivered to subscribers.
type EventKind string

const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
)

// Event is a single identity state transition. Session is nil for
// EventSignedOut.
type Event struct {
	Kind    EventKind
	Session *Session
}

// EncodeCookie serializes a session for cookie transport. The encoding is an
// implementation detail shared by every adapter that writes the session
// cookie; only DecodeCookie may read it back.
func EncodeCookie(s Session) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeCookie parses a cookie value produced by EncodeCookie.
func DecodeCookie(value string) (Session, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return Session{}, fmt.Errorf("decode session cookie: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("unmarshal session cookie: %w", err)
	}
	return s, nil
}
