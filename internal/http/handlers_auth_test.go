package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mocks "github.com/itcache/portal/internal/mocks/auth"
	"github.com/itcache/portal/internal/ports"
)

func newTestRouter(client ports.IdentityClient, profiles ports.ProfileStore) http.Handler {
	if profiles == nil {
		profiles = mocks.NewMemoryProfileStore()
	}
	return NewRouter(RouterServices{
		Rules:         guardRules(),
		ClientFactory: func(ports.CookieJar) ports.IdentityClient { return client },
		Profiles:      profiles,
		SessionCookie: "portal-session",
		Logger:        discardLogger(),
	})
}

func postJSON(path, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func jsonBody(body string) *strings.Reader {
	return strings.NewReader(body)
}

func TestLogin_Success(t *testing.T) {
	client := mocks.NewIdentityClient()
	client.Session = liveSession()
	router := newTestRouter(client, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postJSON("/auth/login", `{"email":"u@example.com","password":"pw"}`))

	require.Equal(t, http.StatusOK, w.Code)
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user-1", resp.UserID)
	assert.Equal(t, "u@example.com", resp.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	router := newTestRouter(mocks.NewIdentityClient(), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postJSON("/auth/login", `{"email":"u@example.com","password":"wrong"}`))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "auth_failed", resp["error"])
	// The reason is user-displayable.
	assert.Contains(t, resp["message"], "invalid email or password")
}

func TestLogin_MalformedBody(t *testing.T) {
	router := newTestRouter(mocks.NewIdentityClient(), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postJSON("/auth/login", `{"email":`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAccount_Provisional(t *testing.T) {
	router := newTestRouter(mocks.NewIdentityClient(), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postJSON("/auth/create-account", `{"email":"new@example.com","password":"pw"}`))

	require.Equal(t, http.StatusCreated, w.Code)
	var resp signUpResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "new@example.com", resp.Email)
	assert.True(t, resp.ConfirmationSent)
}

func TestLogout_RedirectsToLogin(t *testing.T) {
	client := mocks.NewIdentityClient()
	client.Session = liveSession()
	router := newTestRouter(client, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postJSON("/auth/logout", ""))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Nil(t, client.Session)
}

func TestLogout_ProviderFailureStillRedirects(t *testing.T) {
	client := mocks.NewIdentityClient()
	client.SignOutFunc = func(context.Context) error { return assert.AnError }
	router := newTestRouter(client, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postJSON("/auth/logout", ""))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(mocks.NewIdentityClient(), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
