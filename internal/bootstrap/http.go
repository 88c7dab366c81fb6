package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/itcache/portal/config"
	redisadapter "github.com/itcache/portal/internal/adapters/redis"
	"github.com/itcache/portal/internal/data"
	"github.com/itcache/portal/internal/guard"
	httpx "github.com/itcache/portal/internal/http"
)

// HTTPServerDeps carries the shared infrastructure the HTTP surface needs.
type HTTPServerDeps struct {
	Config *config.AppConfig
	DB     *sql.DB
	Redis  redis.UniversalClient
	Logger *slog.Logger
}

// BuildHandler assembles the router behind the guard pipeline.
func BuildHandler(deps HTTPServerDeps) (http.Handler, error) {
	cfg := deps.Config

	cache := redisadapter.NewSessionCache(deps.Redis, cfg.Auth.SessionCacheTTL)
	factory, err := NewClientFactory(AuthDeps{
		Auth:  cfg.Auth,
		HTTP:  cfg.HTTP,
		Cache: cache,
	})
	if err != nil {
		return nil, err
	}

	ssoProvider, err := NewSSOProvider(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("configure sso provider: %w", err)
	}

	return httpx.NewRouter(httpx.RouterServices{
		Rules:          guard.NewRules(cfg.Routes),
		ClientFactory:  factory,
		Profiles:       data.NewProfileRepo(deps.DB),
		SSO:            ssoProvider,
		SessionCookie:  cfg.Auth.SessionCookie,
		Cookie:         CookieDefaults(cfg.HTTP),
		SSORedirectURL: cfg.Auth.SSO.RedirectURL,
		AllowedHeaders: cfg.HTTP.AllowedUpstreamHeaders,
		Logger:         deps.Logger,
	}), nil
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully within the configured timeout.
func Serve(ctx context.Context, deps HTTPServerDeps) error {
	handler, err := BuildHandler(deps)
	if err != nil {
		return err
	}

	addr := deps.Config.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Logger.Info("starting HTTP server", "addr", server.Addr)
		if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			return serveErr
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	deps.Logger.Info("HTTP server stopped")
	return nil
}
