package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itcache/portal/config"
	domainauth "github.com/itcache/portal/internal/domain/auth"
	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/guard"
	mocks "github.com/itcache/portal/internal/mocks/auth"
	"github.com/itcache/portal/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func guardRules() *guard.Rules {
	return guard.NewRules(config.RouteRules{
		ProtectedPrefixes: []string{"/companies", "/admin"},
		AuthEntryPaths:    []string{"/login", "/create-account"},
		AdminPrefix:       "/admin",
		LoginPath:         "/login",
		HomePath:          "/",
	})
}

func liveSession() *domainauth.Session {
	return &domainauth.Session{
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(time.Hour),
		UserID:      "user-1",
		Email:       "u@example.com",
	}
}

// guardPipeline wires WithIdentity + Authenticate around the handler the way
// the router does.
func guardPipeline(client ports.IdentityClient, next http.Handler) http.Handler {
	factory := func(ports.CookieJar) ports.IdentityClient { return client }
	return Sequence(
		WithIdentity(factory, ports.CookieOptions{}),
		Authenticate(guardRules(), nil, discardLogger()),
	)(next)
}

func TestAuthenticate_ProtectedWithoutSessionRedirects(t *testing.T) {
	h := guardPipeline(mocks.NewIdentityClient(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/companies/42", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAuthenticate_PublicPathProceedsWithoutSession(t *testing.T) {
	var ran bool
	h := guardPipeline(mocks.NewIdentityClient(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
		_, ok := SessionFromContext(r.Context())
		assert.False(t, ok)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.True(t, ran)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_ResolutionFailureDegradesToUnauthenticated(t *testing.T) {
	failingClient := mocks.NewIdentityClient()
	failingClient.GetSessionFunc = func(ctx context.Context) (*domainauth.Session, error) {
		return nil, apperrors.SessionResolution(assert.AnError)
	}

	// Protected path degrades to a redirect, never a 5xx.
	h := guardPipeline(failingClient, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/companies", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)

	// Public path still proceeds.
	var ran bool
	h = guardPipeline(failingClient, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
	}))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, ran)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_SessionAttachedToContext(t *testing.T) {
	client := mocks.NewIdentityClient()
	client.Session = liveSession()

	var got *domainauth.Session
	h := guardPipeline(client, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/companies", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
}

// recordingClient augments the scriptable client with recorded upstream
// headers, as the production client does.
type recordingClient struct {
	*mocks.IdentityClient
	headers http.Header
}

func (c *recordingClient) UpstreamHeaders() http.Header { return c.headers.Clone() }

func TestAuthenticate_CopiesOnlyAllowedUpstreamHeaders(t *testing.T) {
	inner := mocks.NewIdentityClient()
	inner.Session = liveSession()
	client := &recordingClient{
		IdentityClient: inner,
		headers: http.Header{
			"Content-Range":     []string{"items 0-9/42"},
			"X-Upstream-Secret": []string{"do-not-forward"},
		},
	}

	h := guardPipeline(client, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/companies", nil))

	assert.Equal(t, "items 0-9/42", w.Header().Get("Content-Range"))
	assert.Empty(t, w.Header().Get("X-Upstream-Secret"))
}

func TestRecover_PanicBecomes500(t *testing.T) {
	h := Recover(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogging_PreservesResponse(t *testing.T) {
	h := Logging(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestSafeRedirectPath(t *testing.T) {
	assert.Equal(t, "/companies/42", safeRedirectPath("/companies/42"))
	assert.Equal(t, "/a?b=c", safeRedirectPath("/a?b=c"))
	assert.Empty(t, safeRedirectPath(""))
	assert.Empty(t, safeRedirectPath("//evil.example.com"))
	assert.Empty(t, safeRedirectPath("https://evil.example.com/x"))
	assert.Empty(t, safeRedirectPath("relative/path"))
}
