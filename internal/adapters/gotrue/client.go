package gotrue

// Package gotrue implements ports.IdentityClient against a GoTrue-style
// identity provider: password and refresh-token grants on the token
// endpoint, plus /user, /signup, and /logout resources. One Client is bound
// to one request's cookie jar; the serialized token bundle is the only thing
// persisted client-side.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	domainauth "github.com/itcache/portal/internal/domain/auth"
	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/ports"
	"golang.org/x/oauth2"
)

// refreshSkew renews sessions slightly before their hard expiry so a request
// never rides a token that dies mid-flight.
const refreshSkew = 30 * time.Second

// Config holds provider coordinates and cookie behavior for the client.
type Config struct {
	// URL is the provider base URL.
	URL string
	// PublicKey is the provider public API key, attached to every call.
	PublicKey string
	// CookieName is the session cookie name.
	CookieName string
	// Cookie carries the base options forwarded on every cookie write.
	Cookie ports.CookieOptions
	// Timeout bounds each provider round-trip.
	Timeout time.Duration
	// Cache, when set, short-circuits validation of cookie-restored
	// sessions.
	Cache ports.SessionCache
	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
}

// Client is a request-scoped identity client. It caches the resolved session
// for the lifetime of the bound request only.
type Client struct {
	cfg   Config
	base  string
	oauth *oauth2.Config
	hc    *http.Client

	mu       sync.Mutex
	jar      ports.CookieJar
	current  *domainauth.Session
	upstream http.Header
	subs     map[int]func(domainauth.Event)
	nextSub  int
}

var (
	_ ports.IdentityClient = (*Client)(nil)
	_ ports.HeaderRecorder = (*Client)(nil)
)

// New builds a client bound to the given cookie jar.
func New(cfg Config, jar ports.CookieJar) *Client {
	if cfg.CookieName == "" {
		cfg.CookieName = "portal-session"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	wrapped := *hc
	wrapped.Transport = &apikeyTransport{key: cfg.PublicKey, next: hc.Transport}

	base := strings.TrimRight(cfg.URL, "/")
	return &Client{
		cfg:  cfg,
		base: base,
		oauth: &oauth2.Config{
			ClientID: cfg.PublicKey,
			Endpoint: oauth2.Endpoint{
				TokenURL:  base + "/auth/v1/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		hc:       &wrapped,
		jar:      jar,
		upstream: http.Header{},
		subs:     make(map[int]func(domainauth.Event)),
	}
}

// apikeyTransport stamps the provider public key onto every outgoing call.
type apikeyTransport struct {
	key  string
	next http.RoundTripper
}

func (t *apikeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("apikey", t.key)
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(clone)
}

// bound derives a context with the per-call provider timeout applied.
func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// oauthContext routes the oauth2 machinery through our transport.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.hc)
}

// SignInWithPassword authenticates with credentials. Local state is mutated
// only after the full identity resolution succeeds.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (domainauth.Session, error) {
	if email == "" || password == "" {
		return domainauth.Session{}, apperrors.Auth("email and password are required")
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	tok, err := c.oauth.PasswordCredentialsToken(c.oauthContext(ctx), email, password)
	if err != nil {
		return domainauth.Session{}, mapTokenError(err)
	}

	ident, err := c.fetchIdentity(ctx, tok.AccessToken)
	if err != nil {
		return domainauth.Session{}, err
	}

	sess := sessionFromToken(tok, ident)
	c.adopt(sess)
	c.cachePut(ctx, sess)
	c.emit(domainauth.Event{Kind: domainauth.EventSignedIn, Session: &sess})
	return sess, nil
}

// SignUp registers a new account. The provider may require confirmation, so
// no session is established here.
func (c *Client) SignUp(ctx context.Context, email, password string) (ports.SignUpResult, error) {
	if email == "" || password == "" {
		return ports.SignUpResult{}, apperrors.Auth("email and password are required")
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	var out struct {
		ID                 string `json:"id"`
		Email              string `json:"email"`
		ConfirmationSentAt string `json:"confirmation_sent_at"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   map[string]string{"email": email, "password": password},
	}, &out)
	if err != nil {
		return ports.SignUpResult{}, err
	}

	return ports.SignUpResult{
		UserID:           out.ID,
		Email:            out.Email,
		ConfirmationSent: out.ConfirmationSentAt != "",
	}, nil
}

// SignOut clears the cached identity and the session cookie synchronously,
// then revokes the provider-side session. A later read can never observe a
// stale authenticated value.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.current
	if sess == nil {
		if raw, ok := c.jar.Get(c.cfg.CookieName); ok {
			if restored, err := domainauth.DecodeCookie(raw); err == nil {
				sess = &restored
			}
		}
	}
	c.current = nil
	c.jar.Delete(c.cfg.CookieName, c.cookieOpts(-1))
	c.mu.Unlock()

	c.emit(domainauth.Event{Kind: domainauth.EventSignedOut})

	if sess == nil {
		return nil
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if c.cfg.Cache != nil {
		_ = c.cfg.Cache.Invalidate(ctx, sess.AccessToken)
	}
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: sess.AccessToken,
	}, nil); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeAuth, "sign-out failed")
	}
	return nil
}

// GetSession returns the current session, restoring and validating it from
// the cookie when needed. Absence is (nil, nil); provider failure during
// validation surfaces as a session_resolution error.
func (c *Client) GetSession(ctx context.Context) (*domainauth.Session, error) {
	now := time.Now()

	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()

	if cur != nil && !cur.Expired(now.Add(refreshSkew)) {
		s := *cur
		return &s, nil
	}

	sess := domainauth.Session{}
	switch {
	case cur != nil:
		sess = *cur
	default:
		raw, ok := c.jar.Get(c.cfg.CookieName)
		if !ok {
			return nil, nil
		}
		restored, err := domainauth.DecodeCookie(raw)
		if err != nil {
			// Corrupt cookie: drop it and treat as anonymous.
			c.jar.Delete(c.cfg.CookieName, c.cookieOpts(-1))
			return nil, nil
		}
		sess = restored
	}

	if sess.Expired(now.Add(refreshSkew)) {
		return c.refresh(ctx, sess)
	}
	return c.validate(ctx, sess)
}

// GetUser returns the authenticated identity, or (nil, nil) when anonymous.
func (c *Client) GetUser(ctx context.Context) (*domainauth.Identity, error) {
	sess, err := c.GetSession(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.UserID != "" {
		return &domainauth.Identity{ID: sess.UserID, Email: sess.Email}, nil
	}
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.fetchIdentity(ctx, sess.AccessToken)
}

// Subscribe registers an auth-change listener and returns its removal
// function. Exactly one event is delivered per state transition.
func (c *Client) Subscribe(fn func(domainauth.Event)) ports.Unsubscribe {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// UpstreamHeaders returns headers accumulated from provider responses. The
// server guard copies an allow-listed subset onto the outgoing response.
func (c *Client) UpstreamHeaders() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upstream.Clone()
}

// validate confirms a cookie-restored, unexpired session with the provider,
// consulting the resolved-session cache first.
func (c *Client) validate(ctx context.Context, sess domainauth.Session) (*domainauth.Session, error) {
	if c.cfg.Cache != nil {
		if hit, err := c.cfg.Cache.Lookup(ctx, sess.AccessToken); err == nil && hit != nil {
			c.adoptQuiet(*hit)
			out := *hit
			return &out, nil
		}
	}

	vctx, cancel := c.bound(ctx)
	defer cancel()

	ident, err := c.fetchIdentity(vctx, sess.AccessToken)
	switch {
	case err == nil && ident != nil:
		sess.UserID = ident.ID
		sess.Email = ident.Email
		c.adopt(sess)
		c.cachePut(ctx, sess)
		out := sess
		return &out, nil
	case err == nil:
		// Token rejected by the provider: try the refresh grant before
		// giving up on the session.
		return c.refresh(ctx, sess)
	default:
		return nil, err
	}
}

// refresh exchanges the refresh token for a fresh bundle. An invalid grant
// means the session is gone (not an error); transport failures degrade to a
// session_resolution error.
func (c *Client) refresh(ctx context.Context, sess domainauth.Session) (*domainauth.Session, error) {
	if sess.RefreshToken == "" {
		c.clearCookie()
		return nil, nil
	}

	rctx, cancel := c.bound(ctx)
	defer cancel()

	src := c.oauth.TokenSource(c.oauthContext(rctx), &oauth2.Token{
		RefreshToken: sess.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	})
	tok, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			// Refresh token revoked or consumed: session is over.
			c.clearCookie()
			return nil, nil
		}
		return nil, apperrors.SessionResolution(err)
	}

	ident := &domainauth.Identity{ID: sess.UserID, Email: sess.Email}
	if ident.ID == "" {
		ident, err = c.fetchIdentity(rctx, tok.AccessToken)
		if err != nil {
			return nil, err
		}
	}

	if c.cfg.Cache != nil {
		_ = c.cfg.Cache.Invalidate(ctx, sess.AccessToken)
	}

	fresh := sessionFromToken(tok, ident)
	c.adopt(fresh)
	c.cachePut(ctx, fresh)
	c.emit(domainauth.Event{Kind: domainauth.EventTokenRefreshed, Session: &fresh})
	out := fresh
	return &out, nil
}

// adopt stores the session locally and writes the cookie.
func (c *Client) adopt(sess domainauth.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &sess
	if value, err := domainauth.EncodeCookie(sess); err == nil {
		maxAge := int(time.Until(sess.ExpiresAt) / time.Second)
		if sess.ExpiresAt.IsZero() {
			maxAge = 0
		}
		c.jar.Set(c.cfg.CookieName, value, c.cookieOpts(maxAge))
	}
}

// adoptQuiet stores the session locally without rewriting the cookie
// (cache hits keep the bundle the browser already holds).
func (c *Client) adoptQuiet(sess domainauth.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &sess
}

func (c *Client) clearCookie() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.jar.Delete(c.cfg.CookieName, c.cookieOpts(-1))
}

func (c *Client) cachePut(ctx context.Context, sess domainauth.Session) {
	if c.cfg.Cache == nil {
		return
	}
	_ = c.cfg.Cache.Put(ctx, sess)
}

func (c *Client) cookieOpts(maxAge int) ports.CookieOptions {
	opts := c.cfg.Cookie
	if opts.Path == "" {
		opts.Path = "/"
	}
	opts.HTTPOnly = true
	opts.MaxAge = maxAge
	return opts
}

func (c *Client) emit(ev domainauth.Event) {
	c.mu.Lock()
	fns := make([]func(domainauth.Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// fetchIdentity resolves the subject behind an access token. Returns
// (nil, nil) when the provider rejects the token as unauthenticated.
func (c *Client) fetchIdentity(ctx context.Context, accessToken string) (*domainauth.Identity, error) {
	var out struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		bearer: accessToken,
	}, &out)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeAuth {
			return nil, nil
		}
		return nil, err
	}
	return &domainauth.Identity{ID: out.ID, Email: out.Email}, nil
}

// request groups the parameters for a direct provider call.
type request struct {
	method string
	path   string
	body   any
	bearer string
}

// do performs a direct provider call, records upstream response headers, and
// maps failures onto the application taxonomy (4xx → auth, transport →
// session_resolution).
func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode provider request")
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.base+req.path, body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build provider request")
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.bearer)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return apperrors.SessionResolution(err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.recordUpstream(resp.Header)

	if resp.StatusCode >= 400 {
		return providerError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode provider response")
	}
	return nil
}

func (c *Client) recordUpstream(h http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, values := range h {
		c.upstream[name] = append([]string(nil), values...)
	}
}

// providerError maps a non-2xx provider response to a typed error with a
// user-displayable message.
func providerError(resp *http.Response) error {
	var payload struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
		Msg         string `json:"msg"`
		Message     string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &payload)

	msg := firstNonEmpty(payload.Description, payload.Msg, payload.Message, payload.Error)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.Auth("too many attempts, please try again later")
	case resp.StatusCode >= 500:
		return apperrors.SessionResolution(fmt.Errorf("provider returned %d: %s", resp.StatusCode, msg))
	case msg != "":
		return apperrors.Auth(msg)
	default:
		return apperrors.Authf("provider rejected the request (%d)", resp.StatusCode)
	}
}

// mapTokenError translates oauth2 token-endpoint failures into auth errors
// with human-readable reasons.
func mapTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return apperrors.Wrap(err, apperrors.ErrCodeAuth, "sign-in failed")
	}

	var payload struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
		Msg         string `json:"msg"`
	}
	_ = json.Unmarshal(retrieveErr.Body, &payload)

	// The provider's own description is the user-displayable reason; the
	// generic text only covers bare rejections like {"error":"invalid_grant"}.
	switch {
	case retrieveErr.Response != nil && retrieveErr.Response.StatusCode == http.StatusTooManyRequests:
		return apperrors.Auth("too many sign-in attempts, please try again later")
	case strings.Contains(strings.ToLower(payload.Description), "not confirmed"):
		return apperrors.Auth("account not confirmed, check your email")
	case payload.Description != "":
		return apperrors.Auth(payload.Description)
	case payload.Msg != "":
		return apperrors.Auth(payload.Msg)
	default:
		return apperrors.Auth("invalid email or password")
	}
}

func sessionFromToken(tok *oauth2.Token, ident *domainauth.Identity) domainauth.Session {
	sess := domainauth.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}
	if ident != nil {
		sess.UserID = ident.ID
		sess.Email = ident.Email
	}
	return sess
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
