package devauth

import (
	"context"
	"testing"
	"time"

	domainauth "github.com/itcache/portal/internal/domain/auth"
	apperrors "github.com/itcache/portal/internal/errors"
	mocks "github.com/itcache/portal/internal/mocks/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDevClient(t *testing.T, jar *mocks.CookieJar) *Client {
	t.Helper()
	c, err := New(Config{
		UserID:   "dev-user",
		Email:    "dev@example.com",
		Password: "dev-password",
	}, jar)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresIdentity(t *testing.T) {
	_, err := New(Config{Email: "dev@example.com"}, mocks.NewCookieJar())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfig(err))

	_, err = New(Config{UserID: "dev-user"}, mocks.NewCookieJar())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfig(err))
}

func TestSignInAndRestore(t *testing.T) {
	jar := mocks.NewCookieJar()
	client := newDevClient(t, jar)

	sess, err := client.SignInWithPassword(context.Background(), "dev@example.com", "dev-password")
	require.NoError(t, err)
	assert.Equal(t, "dev-user", sess.UserID)

	// A fresh client bound to the same jar restores the session, as on a
	// subsequent request.
	next := newDevClient(t, jar)
	restored, err := next.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, sess.AccessToken, restored.AccessToken)

	ident, err := next.GetUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ident)
	assert.Equal(t, "dev@example.com", ident.Email)
}

func TestSignIn_WrongPassword(t *testing.T) {
	client := newDevClient(t, mocks.NewCookieJar())
	_, err := client.SignInWithPassword(context.Background(), "dev@example.com", "nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
}

func TestSignOut_EmitsAndClears(t *testing.T) {
	jar := mocks.NewCookieJar()
	client := newDevClient(t, jar)

	_, err := client.SignInWithPassword(context.Background(), "dev@example.com", "dev-password")
	require.NoError(t, err)

	var kinds []domainauth.EventKind
	client.Subscribe(func(ev domainauth.Event) { kinds = append(kinds, ev.Kind) })

	require.NoError(t, client.SignOut(context.Background()))
	assert.Equal(t, []domainauth.EventKind{domainauth.EventSignedOut}, kinds)

	sess, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestGetSession_ExpiredCookie(t *testing.T) {
	jar := mocks.NewCookieJar()
	require.NoError(t, jar.Seed("portal-session", domainauth.Session{
		AccessToken: "stale",
		ExpiresAt:   time.Now().Add(-time.Minute),
		UserID:      "dev-user",
	}))

	client := newDevClient(t, jar)
	sess, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}
