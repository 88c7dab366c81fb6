package auth

// Package auth contains simple hand-written test doubles for identity,
// profile, and preference ports. These are lightweight and suitable for unit
// tests without codegen; generated gomock doubles live in internal/mocks.

import (
	"context"
	"sync"

	domainauth "github.com/itcache/portal/internal/domain/auth"
	"github.com/itcache/portal/internal/domain/profile"
	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.CookieJar      = (*CookieJar)(nil)
	_ ports.IdentityClient = (*IdentityClient)(nil)
	_ ports.ProfileStore   = (*MemoryProfileStore)(nil)
	_ ports.RoleDirectory  = (*StaticRoleDirectory)(nil)
	_ ports.DeviceStore    = (*MemoryDeviceStore)(nil)
	_ ports.SessionCache   = (*MemorySessionCache)(nil)
)

// CookieJar is an in-memory jar that records the options of every write.
type CookieJar struct {
	mu      sync.Mutex
	values  map[string]string
	SetOpts map[string]ports.CookieOptions
	Deleted []string
}

func NewCookieJar() *CookieJar {
	return &CookieJar{
		values:  make(map[string]string),
		SetOpts: make(map[string]ports.CookieOptions),
	}
}

func (j *CookieJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	v, ok := j.values[name]
	return v, ok
}

func (j *CookieJar) Set(name, value string, opts ports.CookieOptions) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.values[name] = value
	j.SetOpts[name] = opts
}

func (j *CookieJar) Delete(name string, _ ports.CookieOptions) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.values, name)
	j.Deleted = append(j.Deleted, name)
}

// Seed places a serialized session in the jar, as if set on a prior request.
func (j *CookieJar) Seed(name string, sess domainauth.Session) error {
	value, err := domainauth.EncodeCookie(sess)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.values[name] = value
	return nil
}

// IdentityClient is a scriptable ports.IdentityClient. Unset funcs fall back
// to the configured Session/Identity fields; Emit drives subscribers.
type IdentityClient struct {
	SignInFunc     func(ctx context.Context, email, password string) (domainauth.Session, error)
	SignUpFunc     func(ctx context.Context, email, password string) (ports.SignUpResult, error)
	SignOutFunc    func(ctx context.Context) error
	GetSessionFunc func(ctx context.Context) (*domainauth.Session, error)
	GetUserFunc    func(ctx context.Context) (*domainauth.Identity, error)

	Session  *domainauth.Session
	Identity *domainauth.Identity

	mu      sync.Mutex
	subs    map[int]func(domainauth.Event)
	nextSub int
}

func NewIdentityClient() *IdentityClient {
	return &IdentityClient{subs: make(map[int]func(domainauth.Event))}
}

func (c *IdentityClient) SignInWithPassword(ctx context.Context, email, password string) (domainauth.Session, error) {
	if c.SignInFunc != nil {
		return c.SignInFunc(ctx, email, password)
	}
	if c.Session == nil {
		return domainauth.Session{}, apperrors.Auth("invalid email or password")
	}
	return *c.Session, nil
}

func (c *IdentityClient) SignUp(ctx context.Context, email, password string) (ports.SignUpResult, error) {
	if c.SignUpFunc != nil {
		return c.SignUpFunc(ctx, email, password)
	}
	return ports.SignUpResult{Email: email, ConfirmationSent: true}, nil
}

func (c *IdentityClient) SignOut(ctx context.Context) error {
	if c.SignOutFunc != nil {
		return c.SignOutFunc(ctx)
	}
	c.mu.Lock()
	c.Session = nil
	c.Identity = nil
	c.mu.Unlock()
	c.Emit(domainauth.Event{Kind: domainauth.EventSignedOut})
	return nil
}

func (c *IdentityClient) GetSession(ctx context.Context) (*domainauth.Session, error) {
	if c.GetSessionFunc != nil {
		return c.GetSessionFunc(ctx)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Session == nil {
		return nil, nil
	}
	s := *c.Session
	return &s, nil
}

func (c *IdentityClient) GetUser(ctx context.Context) (*domainauth.Identity, error) {
	if c.GetUserFunc != nil {
		return c.GetUserFunc(ctx)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Identity == nil {
		return nil, nil
	}
	id := *c.Identity
	return &id, nil
}

func (c *IdentityClient) Subscribe(fn func(domainauth.Event)) ports.Unsubscribe {
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

// Emit delivers an event to all subscribers, as the provider would on an
// auth state change.
func (c *IdentityClient) Emit(ev domainauth.Event) {
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

// MemoryProfileStore is a map-backed ports.ProfileStore.
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]profile.Profile

	// GetErr / UpdateErr force failures when set.
	GetErr    error
	UpdateErr error
	// GetByUserIDFunc overrides lookups entirely when set.
	GetByUserIDFunc func(ctx context.Context, userID string) (profile.Profile, error)
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]profile.Profile)}
}

func (s *MemoryProfileStore) Put(p profile.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
}

func (s *MemoryProfileStore) GetByUserID(ctx context.Context, userID string) (profile.Profile, error) {
	if s.GetByUserIDFunc != nil {
		return s.GetByUserIDFunc(ctx, userID)
	}
	if s.GetErr != nil {
		return profile.Profile{}, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return profile.Profile{}, apperrors.NotFound("profile row not found")
	}
	return p, nil
}

func (s *MemoryProfileStore) UpdateTheme(_ context.Context, userID string, theme profile.Theme) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return apperrors.NotFound("profile row not found")
	}
	p.Theme = theme
	s.profiles[userID] = p
	return nil
}

// StaticRoleDirectory resolves role names from a fixed map.
type StaticRoleDirectory struct {
	Roles map[string]string
	Err   error
	// Calls counts lookups so tests can assert caching behavior.
	Calls int
	mu    sync.Mutex
}

func (d *StaticRoleDirectory) IDByName(_ context.Context, name string) (string, error) {
	d.mu.Lock()
	d.Calls++
	d.mu.Unlock()
	if d.Err != nil {
		return "", d.Err
	}
	id, ok := d.Roles[name]
	if !ok {
		return "", apperrors.NotFound("role not found")
	}
	return id, nil
}

// MemoryDeviceStore is a map-backed ports.DeviceStore.
type MemoryDeviceStore struct {
	mu     sync.Mutex
	values map[string]string
	SetErr error
}

func NewMemoryDeviceStore() *MemoryDeviceStore {
	return &MemoryDeviceStore{values: make(map[string]string)}
}

func (s *MemoryDeviceStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryDeviceStore) Set(key, value string) error {
	if s.SetErr != nil {
		return s.SetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// MemorySessionCache is a map-backed ports.SessionCache without TTL
// semantics; tests drive expiry through Invalidate.
type MemorySessionCache struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
	Puts     int
	Hits     int
}

func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{sessions: make(map[string]domainauth.Session)}
}

func (c *MemorySessionCache) Put(_ context.Context, sess domainauth.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[sess.AccessToken] = sess
	c.Puts++
	return nil
}

func (c *MemorySessionCache) Lookup(_ context.Context, accessToken string) (*domainauth.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[accessToken]
	if !ok {
		return nil, nil
	}
	c.Hits++
	out := sess
	return &out, nil
}

func (c *MemorySessionCache) Invalidate(_ context.Context, accessToken string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, accessToken)
	return nil
}
