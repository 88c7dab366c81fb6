package sso

// Package sso implements the OIDC authorization-code flow as an alternative
// session source. A successful exchange yields the same session bundle the
// password flow produces, so everything downstream of the cookie is
// flow-agnostic.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/itcache/portal/internal/domain/auth"
	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/ports"
)

// Provider implements ports.SSOProvider over go-oidc discovery and the
// oauth2 code flow.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

var _ ports.SSOProvider = (*Provider)(nil)

// Config holds OIDC code-flow configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client // optional, defaults to a 30s-timeout client
}

// New creates an SSO provider, performing a single discovery fetch.
func New(config Config) (*Provider, error) {
	if config.ClientID == "" {
		return nil, apperrors.Config("sso: client id is required")
	}
	if config.ClientSecret == "" {
		return nil, apperrors.Config("sso: client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, apperrors.Config("sso: redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, apperrors.Config("sso: discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Provider{
		httpClient:   httpClient,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(config.Scope),
			Endpoint:     op.Endpoint(),
		},
	}, nil
}

// Begin builds the provider authorization URL plus the state and nonce the
// caller must hold (in short-lived cookies) until the callback.
func (p *Provider) Begin(_ context.Context, in ports.SSOBeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", apperrors.Validation("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange redeems the authorization code and verifies the resulting id
// token, returning a session bundle and the verified identity.
func (p *Provider) Exchange(ctx context.Context, in ports.SSOExchangeInput) (domainauth.Session, domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Session{}, domainauth.Identity{}, apperrors.Validation("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Session{}, domainauth.Identity{}, apperrors.Validation("state is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Session{}, domainauth.Identity{}, apperrors.SessionResolution(fmt.Errorf("exchange code: %w", err))
	}

	ident, err := p.identityFromToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Session{}, domainauth.Identity{}, err
	}

	expiresAt := time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	sess := domainauth.Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    expiresAt,
		UserID:       ident.ID,
		Email:        ident.Email,
	}
	return sess, ident, nil
}

type idTokenClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Nonce string `json:"nonce"`
}

func (p *Provider) identityFromToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (domainauth.Identity, error) {
	rawID, _ := tok.Extra("id_token").(string)
	if rawID == "" {
		return domainauth.Identity{}, apperrors.Auth("missing id_token in token response")
	}

	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeAuth, "verify id_token")
	}
	var claims idTokenClaims
	if err := idTok.Claims(&claims); err != nil {
		return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeAuth, "parse id_token claims")
	}
	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return domainauth.Identity{}, apperrors.Auth("invalid nonce")
	}

	ident := domainauth.Identity{ID: claims.Sub, Email: claims.Email}
	if ident.Email == "" {
		if fillErr := p.fillFromUserInfo(ctx, tok.AccessToken, &ident); fillErr != nil {
			return domainauth.Identity{}, fillErr
		}
	}
	return ident, nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, accessToken string, ident *domainauth.Identity) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return apperrors.SessionResolution(fmt.Errorf("fetch user info: %w", err))
	}
	var claims idTokenClaims
	if err := ui.Claims(&claims); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeAuth, "decode user info")
	}
	if ident.ID == "" {
		ident.ID = claims.Sub
	}
	if ident.Email == "" {
		ident.Email = claims.Email
	}
	return nil
}

// generateRandomString returns a URL-safe random string of exactly length
// characters.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	for len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}
