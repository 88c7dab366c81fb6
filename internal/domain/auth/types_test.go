package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Expired(t *testing.T) {
	now := time.Now()

	expired := Session{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, expired.Expired(now))

	live := Session{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, live.Expired(now))

	// Zero expiry means the provider did not bound the token; treat as live.
	unbounded := Session{}
	assert.False(t, unbounded.Expired(now))
}

func TestCookieCodec_RoundTrip(t *testing.T) {
	in := Session{
		AccessToken:  "at-123",
		RefreshToken: "rt-456",
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		UserID:       "user-1",
		Email:        "user@example.com",
	}

	value, err := EncodeCookie(in)
	require.NoError(t, err)
	assert.NotContains(t, value, "=", "cookie value must be padding-free")

	out, err := DecodeCookie(value)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeCookie_Garbage(t *testing.T) {
	_, err := DecodeCookie("%%%not-base64%%%")
	assert.Error(t, err)

	_, err = DecodeCookie("bm90LWpzb24")
	assert.Error(t, err)
}
