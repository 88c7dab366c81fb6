package httpx

// Package httpx contains the HTTP surface: the cookie bridge, the guard
// middleware pipeline, and the auth/theme handlers.

import (
	"net/http"
	"sync"

	"github.com/itcache/portal/internal/ports"
)

// CookieBridge adapts one (request, response) pair to ports.CookieJar. Reads
// consult pending writes first so a client that sets a cookie and reads it
// back within the same request observes its own mutation; everything applies
// to this single exchange only.
type CookieBridge struct {
	r *http.Request
	w http.ResponseWriter

	defaults ports.CookieOptions

	mu      sync.Mutex
	pending map[string]*string // nil value marks a deletion
}

var _ ports.CookieJar = (*CookieBridge)(nil)

// NewCookieBridge binds a jar to the given exchange. defaults fill in
// zero-valued fields of the per-write options (domain-wide Secure flag).
func NewCookieBridge(w http.ResponseWriter, r *http.Request, defaults ports.CookieOptions) *CookieBridge {
	return &CookieBridge{
		r:        r,
		w:        w,
		defaults: defaults,
		pending:  make(map[string]*string),
	}
}

func (b *CookieBridge) Get(name string) (string, bool) {
	b.mu.Lock()
	if v, ok := b.pending[name]; ok {
		b.mu.Unlock()
		if v == nil {
			return "", false
		}
		return *v, true
	}
	b.mu.Unlock()

	c, err := b.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (b *CookieBridge) Set(name, value string, opts ports.CookieOptions) {
	b.mu.Lock()
	v := value
	b.pending[name] = &v
	b.mu.Unlock()

	http.SetCookie(b.w, b.cookie(name, value, opts, 0))
}

func (b *CookieBridge) Delete(name string, opts ports.CookieOptions) {
	b.mu.Lock()
	b.pending[name] = nil
	b.mu.Unlock()

	http.SetCookie(b.w, b.cookie(name, "", opts, -1))
}

// cookie translates jar options to an http.Cookie verbatim, applying
// defaults for unset fields. forceMaxAge overrides MaxAge for deletions.
func (b *CookieBridge) cookie(name, value string, opts ports.CookieOptions, forceMaxAge int) *http.Cookie {
	path := opts.Path
	if path == "" {
		path = b.defaults.Path
	}
	if path == "" {
		path = "/"
	}
	sameSite := opts.SameSite
	if sameSite == 0 {
		sameSite = b.defaults.SameSite
	}
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}

	maxAge := opts.MaxAge
	if forceMaxAge != 0 {
		maxAge = forceMaxAge
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: opts.HTTPOnly || b.defaults.HTTPOnly,
		Secure:   opts.Secure || b.defaults.Secure,
		SameSite: sameSite,
	}
}
