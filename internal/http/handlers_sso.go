package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/itcache/portal/internal/domain/auth"
	"github.com/itcache/portal/internal/ports"
)

const (
	stateCookie         = "oauth_state"
	nonceCookie         = "oauth_nonce"
	postLoginRedirect   = "post_login_redirect"
	ssoFlowCookieMaxAge = int(10 * time.Minute / time.Second)
)

// SSOHandlers serves the OIDC code-flow endpoints. The resulting session
// travels through the same cookie bridge as password sessions, so everything
// downstream of the guard is flow-agnostic.
type SSOHandlers struct {
	Provider ports.SSOProvider

	// SessionCookie is the session cookie name shared with the password flow.
	SessionCookie string
	// Cookie carries the base options for every cookie write.
	Cookie ports.CookieOptions
	// RedirectURL is the registered callback URL at the IdP.
	RedirectURL string
	HomePath    string
	Logger      *slog.Logger
}

// Begin handles GET /auth/sso/login: it starts the code flow, parks state and
// nonce in short-lived cookies, and sends the browser to the IdP.
func (h *SSOHandlers) Begin(w http.ResponseWriter, r *http.Request) {
	authURL, state, nonce, err := h.Provider.Begin(r.Context(), ports.SSOBeginInput{RedirectURL: h.RedirectURL})
	if err != nil {
		h.Logger.Error("sso begin failed", slog.Any("error", err))
		WriteAppError(w, err)
		return
	}

	jar := NewCookieBridge(w, r, h.Cookie)
	opts := h.flowCookieOpts()
	jar.Set(stateCookie, state, opts)
	jar.Set(nonceCookie, nonce, opts)
	if target := safeRedirectPath(r.URL.Query().Get("redirect_to")); target != "" {
		jar.Set(postLoginRedirect, target, opts)
	}

	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

// Callback handles GET /auth/callback: it verifies the round-tripped state,
// redeems the code, writes the session cookie, and clears the flow cookies.
func (h *SSOHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	jar := NewCookieBridge(w, r, h.Cookie)
	expectedState, stateOK := jar.Get(stateCookie)
	nonce, _ := jar.Get(nonceCookie)
	savedRedirect, _ := jar.Get(postLoginRedirect)
	// Flow cookies are single-use; clear them before any response write.
	h.clearFlowCookies(jar)

	if errCode := r.URL.Query().Get("error"); errCode != "" {
		h.Logger.Warn("idp returned an error",
			slog.String("error", errCode),
			slog.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, h.HomePath, http.StatusSeeOther)
		return
	}

	if !stateOK || expectedState == "" || r.URL.Query().Get("state") != expectedState {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_state", Err: errors.New("state mismatch")})
		return
	}

	sess, _, err := h.Provider.Exchange(r.Context(), ports.SSOExchangeInput{
		Code:  r.URL.Query().Get("code"),
		State: expectedState,
		Nonce: nonce,
	})
	if err != nil {
		h.Logger.Error("sso exchange failed", slog.Any("error", err))
		WriteAppError(w, err)
		return
	}

	value, err := domainauth.EncodeCookie(sess)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: err})
		return
	}
	sessOpts := h.Cookie
	sessOpts.HTTPOnly = true
	sessOpts.MaxAge = int(time.Until(sess.ExpiresAt) / time.Second)
	jar.Set(h.SessionCookie, value, sessOpts)

	target := h.HomePath
	if safe := safeRedirectPath(savedRedirect); safe != "" {
		target = safe
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *SSOHandlers) flowCookieOpts() ports.CookieOptions {
	opts := h.Cookie
	opts.HTTPOnly = true
	opts.MaxAge = ssoFlowCookieMaxAge
	return opts
}

func (h *SSOHandlers) clearFlowCookies(jar ports.CookieJar) {
	opts := h.Cookie
	opts.MaxAge = -1
	jar.Delete(stateCookie, opts)
	jar.Delete(nonceCookie, opts)
	jar.Delete(postLoginRedirect, opts)
}
