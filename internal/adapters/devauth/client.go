package devauth

// Package devauth provides a simple, config-driven identity client for local
// development. It accepts exactly one configured credential pair and keeps
// sessions in the cookie jar like the production client, so the guard
// pipeline behaves identically.

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/itcache/portal/internal/domain/auth"
	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/ports"
)

// Config controls the dev identity client behavior.
type Config struct {
	UserID          string
	Email           string
	Password        string
	CookieName      string
	Cookie          ports.CookieOptions
	SessionDuration time.Duration // default 8h when zero
}

// Client implements ports.IdentityClient against the configured identity.
type Client struct {
	cfg Config

	mu      sync.Mutex
	jar     ports.CookieJar
	current *domainauth.Session
	subs    map[int]func(domainauth.Event)
	nextSub int
}

var _ ports.IdentityClient = (*Client)(nil)

// New constructs a dev identity client bound to the given cookie jar.
func New(cfg Config, jar ports.CookieJar) (*Client, error) {
	if cfg.UserID == "" {
		return nil, apperrors.Config("dev auth: user id is required")
	}
	if cfg.Email == "" {
		return nil, apperrors.Config("dev auth: email is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "portal-session"
	}
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = 8 * time.Hour
	}
	return &Client{
		cfg:  cfg,
		jar:  jar,
		subs: make(map[int]func(domainauth.Event)),
	}, nil
}

func (c *Client) SignInWithPassword(_ context.Context, email, password string) (domainauth.Session, error) {
	if !strings.EqualFold(email, c.cfg.Email) || (c.cfg.Password != "" && password != c.cfg.Password) {
		return domainauth.Session{}, apperrors.Auth("invalid email or password")
	}

	sess := domainauth.Session{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(c.cfg.SessionDuration),
		UserID:       c.cfg.UserID,
		Email:        c.cfg.Email,
	}

	c.mu.Lock()
	c.current = &sess
	if value, err := domainauth.EncodeCookie(sess); err == nil {
		opts := c.cfg.Cookie
		opts.HTTPOnly = true
		if opts.Path == "" {
			opts.Path = "/"
		}
		c.jar.Set(c.cfg.CookieName, value, opts)
	}
	c.mu.Unlock()

	c.emit(domainauth.Event{Kind: domainauth.EventSignedIn, Session: &sess})
	return sess, nil
}

func (c *Client) SignUp(_ context.Context, email, _ string) (ports.SignUpResult, error) {
	// Dev mode has a single fixed identity; sign-up pretends to succeed so
	// UI flows can be exercised.
	return ports.SignUpResult{UserID: uuid.NewString(), Email: email, ConfirmationSent: true}, nil
}

func (c *Client) SignOut(_ context.Context) error {
	c.mu.Lock()
	c.current = nil
	c.jar.Delete(c.cfg.CookieName, ports.CookieOptions{Path: "/"})
	c.mu.Unlock()
	c.emit(domainauth.Event{Kind: domainauth.EventSignedOut})
	return nil
}

func (c *Client) GetSession(_ context.Context) (*domainauth.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		if c.current.Expired(time.Now()) {
			c.current = nil
			return nil, nil
		}
		s := *c.current
		return &s, nil
	}

	raw, ok := c.jar.Get(c.cfg.CookieName)
	if !ok {
		return nil, nil
	}
	sess, err := domainauth.DecodeCookie(raw)
	if err != nil || sess.Expired(time.Now()) || sess.UserID != c.cfg.UserID {
		c.jar.Delete(c.cfg.CookieName, ports.CookieOptions{Path: "/"})
		return nil, nil
	}
	c.current = &sess
	s := sess
	return &s, nil
}

func (c *Client) GetUser(ctx context.Context) (*domainauth.Identity, error) {
	sess, err := c.GetSession(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	return &domainauth.Identity{ID: sess.UserID, Email: sess.Email}, nil
}

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
