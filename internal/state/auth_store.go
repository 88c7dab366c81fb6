package state

import (
	"context"
	"log/slog"
	"sync"

	domainauth "github.com/itcache/portal/internal/domain/auth"
	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/ports"
)

// Phase is the resolution state of the current identity.
type Phase string

const (
	// PhaseUnknown means initial resolution has not completed. Consumers
	// must not treat unknown as anonymous for anything user-visible.
	PhaseUnknown       Phase = "unknown"
	PhaseAnonymous     Phase = "anonymous"
	PhaseAuthenticated Phase = "authenticated"
)

// AuthState is the observable identity snapshot. User is non-nil exactly
// when Phase is PhaseAuthenticated.
type AuthState struct {
	Phase Phase
	User  *domainauth.User
}

// Authenticated reports whether the state carries a signed-in user.
func (s AuthState) Authenticated() bool {
	return s.Phase == PhaseAuthenticated && s.User != nil
}

// AuthStoreConfig wires an AuthStore's collaborators.
type AuthStoreConfig struct {
	Client   ports.IdentityClient
	Profiles ports.ProfileStore
	Navigate ports.Navigator
	// LoginPath is where SignOut navigates afterwards.
	LoginPath string
	Logger    *slog.Logger
	// OnError receives asynchronous enrichment failures (event-driven
	// transitions have no caller to return to). Defaults to logging.
	OnError func(error)
}

// AuthStore tracks the current identity phase and enriched user. Transitions
// are serialized by a monotonic generation: any result computed under an
// older generation is discarded, so a sign-out racing an in-flight
// enrichment always ends anonymous.
type AuthStore struct {
	client    ports.IdentityClient
	profiles  ports.ProfileStore
	navigate  ports.Navigator
	loginPath string
	logger    *slog.Logger
	onError   func(error)

	state *Value[AuthState]

	mu         sync.Mutex
	generation uint64
	unsub      ports.Unsubscribe
}

// NewAuthStore constructs an auth store in the unknown phase. Call Start to
// perform initial resolution and begin tracking provider events.
func NewAuthStore(cfg AuthStoreConfig) *AuthStore {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &AuthStore{
		client:    cfg.Client,
		profiles:  cfg.Profiles,
		navigate:  cfg.Navigate,
		loginPath: cfg.LoginPath,
		logger:    logger.With("component", "auth_store"),
		onError:   cfg.OnError,
		state:     NewValue(AuthState{Phase: PhaseUnknown}),
	}
	if s.loginPath == "" {
		s.loginPath = "/login"
	}
	if s.onError == nil {
		s.onError = func(err error) {
			s.logger.Error("auth state transition failed", "err", err)
		}
	}
	return s
}

// State returns the observable identity container.
func (s *AuthStore) State() *Value[AuthState] { return s.state }

// Current returns the identity snapshot at this instant.
func (s *AuthStore) Current() AuthState { return s.state.Get() }

// Start subscribes to provider events and performs the initial session
// resolution. A resolution transport failure degrades to anonymous (logged);
// a missing profile row for a live session is returned as a profile_lookup
// error and leaves the phase unknown.
func (s *AuthStore) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.unsub == nil {
		s.unsub = s.client.Subscribe(s.handleEvent)
	}
	s.mu.Unlock()

	gen := s.nextGeneration()

	sess, err := s.client.GetSession(ctx)
	if err != nil {
		s.logger.Warn("initial session resolution failed, treating as anonymous", "err", err)
		s.apply(gen, AuthState{Phase: PhaseAnonymous})
		return nil
	}
	if sess == nil {
		s.apply(gen, AuthState{Phase: PhaseAnonymous})
		return nil
	}

	user, err := s.enrich(ctx, *sess)
	if err != nil {
		return err
	}
	s.apply(gen, AuthState{Phase: PhaseAuthenticated, User: user})
	return nil
}

// Stop detaches the store from provider events.
func (s *AuthStore) Stop() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// SignIn authenticates and transitions to authenticated with the enriched
// user. Credential failures and missing profile rows both surface to the
// caller; in the latter case the session exists but the store does not enter
// the authenticated phase.
func (s *AuthStore) SignIn(ctx context.Context, email, password string) (*domainauth.User, error) {
	sess, err := s.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	// Claim the generation after the client call: the provider's own
	// SIGNED_IN event has already claimed one, and this synchronous
	// enrichment supersedes the asynchronous event-driven one.
	gen := s.nextGeneration()

	user, err := s.enrich(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.apply(gen, AuthState{Phase: PhaseAuthenticated, User: user})
	return user, nil
}

// SignUp registers a new account. The store state does not change: the
// provider may require confirmation before a session exists.
func (s *AuthStore) SignUp(ctx context.Context, email, password string) (ports.SignUpResult, error) {
	return s.client.SignUp(ctx, email, password)
}

// SignOut clears the session and navigates to the login location. The
// anonymous transition happens synchronously even when the provider-side
// revoke fails.
func (s *AuthStore) SignOut(ctx context.Context) error {
	err := s.client.SignOut(ctx)
	gen := s.nextGeneration()
	s.apply(gen, AuthState{Phase: PhaseAnonymous})
	if s.navigate != nil {
		s.navigate(s.loginPath)
	}
	return err
}

// handleEvent reacts to provider-driven transitions (another tab signing in,
// token refreshes). Each transition claims a fresh generation; enrichment
// for SIGNED_IN runs asynchronously and is discarded if a newer transition
// lands first.
func (s *AuthStore) handleEvent(ev domainauth.Event) {
	switch ev.Kind {
	case domainauth.EventSignedOut:
		gen := s.nextGeneration()
		s.apply(gen, AuthState{Phase: PhaseAnonymous})

	case domainauth.EventSignedIn:
		if ev.Session == nil {
			return
		}
		gen := s.nextGeneration()
		sess := *ev.Session
		go func() {
			user, err := s.enrich(context.Background(), sess)
			if err != nil {
				s.onError(err)
				return
			}
			s.apply(gen, AuthState{Phase: PhaseAuthenticated, User: user})
		}()

	case domainauth.EventTokenRefreshed:
		// Same subject, no state transition.
	}
}

// enrich joins the provider identity with its profile row. A missing row is
// a data-integrity fault, not an anonymous user; any other lookup failure
// (transport, timeout) passes through with its own kind.
func (s *AuthStore) enrich(ctx context.Context, sess domainauth.Session) (*domainauth.User, error) {
	userID, email := sess.UserID, sess.Email
	if userID == "" {
		ident, err := s.client.GetUser(ctx)
		if err != nil {
			return nil, err
		}
		if ident == nil {
			return nil, apperrors.Internal("live session but no resolvable identity")
		}
		userID, email = ident.ID, ident.Email
	}

	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ProfileLookup(userID, err)
		}
		return nil, err
	}

	return &domainauth.User{
		ID:    userID,
		Email: email,
		Role:  prof.RoleID,
		Theme: prof.Theme,
	}, nil
}

func (s *AuthStore) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// apply installs the state only when gen is still the latest transition. The
// generation check runs inside the container's write section: a stale result
// that passed an earlier check can never land after a newer transition.
func (s *AuthStore) apply(gen uint64, st AuthState) {
	s.state.SetIf(st, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return gen == s.generation
	})
}
