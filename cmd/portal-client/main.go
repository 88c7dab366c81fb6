// Command portal-client is an operator-side counterpart to the portal
// server: it signs in against the configured identity provider, keeps the
// session in the per-user device store, and evaluates route-guard decisions
// and theme preferences from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itcache/portal/internal/bootstrap"
	"github.com/itcache/portal/internal/data"
	"github.com/itcache/portal/internal/domain/profile"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger()
	if err := run(ctx, logger, os.Args[1:]); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: portal-client <login|logout|whoami|guard|theme> [args]")
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cfg.Postgres,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()

	profiles := data.NewProfileRepo(db)
	rt, err := bootstrap.NewClientRuntime(bootstrap.ClientDeps{
		Config:   &cfg,
		Profiles: profiles,
		Roles:    data.NewRoleRepo(db),
		Navigate: func(loc string) { logger.InfoContext(ctx, "navigate", "location", loc) },
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := rt.Auth.Start(ctx); err != nil {
		return err
	}
	defer rt.Auth.Stop()
	rt.Theme.Initialize(rt.Auth.Current())

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		user, err := rt.Auth.SignIn(ctx, *email, *password)
		if err != nil {
			return err
		}
		fmt.Printf("signed in as %s (%s)\n", user.Email, user.ID)

	case "logout":
		if err := rt.Auth.SignOut(ctx); err != nil {
			return err
		}
		fmt.Println("signed out")

	case "whoami":
		st := rt.Auth.Current()
		if !st.Authenticated() {
			fmt.Println("anonymous")
			return nil
		}
		fmt.Printf("%s (%s) role=%s theme=%s\n", st.User.Email, st.User.ID, st.User.Role, st.User.Theme)

	case "guard":
		if len(rest) != 1 {
			return fmt.Errorf("usage: portal-client guard <path>")
		}
		d, err := rt.Guard.Decide(ctx, rt.Auth.Current(), rest[0])
		if err != nil {
			return err
		}
		if d.Redirect {
			fmt.Printf("redirect %d %s\n", d.Status, d.Location)
		} else {
			fmt.Println("proceed")
		}

	case "theme":
		if len(rest) == 0 {
			fmt.Println(rt.Theme.Current())
			return nil
		}
		st := rt.Auth.Current()
		want := profile.Theme(rest[0])
		if err := rt.Theme.SetTheme(ctx, st, want); err != nil {
			return err
		}
		if st.Authenticated() {
			// The profile write is asynchronous; hold the process until it
			// lands so exiting does not drop it.
			if err := waitForTheme(ctx, profiles.GetByUserID, st.User.ID, want); err != nil {
				return err
			}
		}
		fmt.Println(want)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func waitForTheme(ctx context.Context, get func(context.Context, string) (profile.Profile, error), userID string, want profile.Theme) error {
	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if p, err := get(ctx, userID); err == nil && p.Theme == want {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("theme update for %s did not persist", userID)
		case <-tick.C:
		}
	}
}
