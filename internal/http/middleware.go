package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/itcache/portal/internal/guard"
	"github.com/itcache/portal/internal/ports"
)

// Middleware is a standard net/http middleware.
type Middleware func(http.Handler) http.Handler

// Sequence composes middlewares so the first argument is the outermost.
func Sequence(mws ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ClientFactory builds an identity client bound to one request's cookie jar.
type ClientFactory func(jar ports.CookieJar) ports.IdentityClient

// WithIdentity returns a middleware that attaches a request-scoped identity
// client to the context, bound to this exchange's cookies through the bridge.
func WithIdentity(factory ClientFactory, cookieDefaults ports.CookieOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jar := NewCookieBridge(w, r, cookieDefaults)
			client := factory(jar)
			ctx := SetClientInContext(r.Context(), client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DefaultAllowedHeaders is the upstream header allow-list applied when none is
// configured. The identity client may record sensitive provider headers, so
// only named headers ever reach the response.
var DefaultAllowedHeaders = []string{"Content-Range"}

// Authenticate returns the request guard. It resolves the session through the
// request-scoped identity client and applies the route policy:
//
//   - resolution failure is treated as no session and logged, never a 5xx
//   - a protected path without a session redirects 303 to the login location
//   - on proceed, the resolved session (if any) is attached to the context and
//     allow-listed upstream headers are copied to the response
func Authenticate(rules *guard.Rules, allowedHeaders []string, logger *slog.Logger) Middleware {
	if len(allowedHeaders) == 0 {
		allowedHeaders = DefaultAllowedHeaders
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, ok := ClientFromContext(r.Context())
			if !ok {
				// Guard misconfigured without WithIdentity: fail closed for
				// protected paths.
				if d := rules.ForRequest(r.URL.Path, false); d.Redirect {
					http.Redirect(w, r, d.Location, d.Status)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			sess, err := client.GetSession(r.Context())
			if err != nil {
				logger.Warn("session resolution failed, treating as unauthenticated",
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				sess = nil
			}

			if d := rules.ForRequest(r.URL.Path, sess != nil); d.Redirect {
				http.Redirect(w, r, d.Location, d.Status)
				return
			}

			copyAllowedHeaders(w, client, allowedHeaders)

			ctx := SetSessionInContext(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// copyAllowedHeaders forwards allow-listed headers recorded from identity
// provider responses onto the outgoing response.
func copyAllowedHeaders(w http.ResponseWriter, client ports.IdentityClient, allowed []string) {
	rec, ok := client.(ports.HeaderRecorder)
	if !ok {
		return
	}
	upstream := rec.UpstreamHeaders()
	for _, name := range allowed {
		for _, v := range upstream.Values(name) {
			w.Header().Add(name, v)
		}
	}
}

// safeRedirectPath accepts only same-origin relative paths, so a post-login
// redirect can never leave the application.
func safeRedirectPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return ""
	}
	return u.RequestURI()
}
