package oidc

// Package oidc provides the OIDC/OAuth2 identity client used by the session manager.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/two-shoulder/authsession/internal/adapters/claims"
	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
	"github.com/two-shoulder/authsession/internal/ports"
)

// Grant selects how the client obtains tokens.
type Grant string

const (
	// GrantRefreshToken exchanges a bootstrap refresh token, then keeps rotating it.
	GrantRefreshToken Grant = "refresh_token"
	// GrantClientCredentials authenticates as the client itself.
	GrantClientCredentials Grant = "client_credentials"
)

// ErrNoSession is returned by operations that need a token when none is held.
var ErrNoSession = errors.New("oidc: no active session")

// ClientConfig holds configuration for the OIDC identity client.
type ClientConfig struct {
	IssuerURL             string
	ClientID              string
	ClientSecret          string
	Scope                 string
	Grant                 Grant
	RefreshToken          string
	PostLogoutRedirectURL string
	Claims                *claims.Parser // Optional, defaults to the Keycloak layout
	HTTPClient            *http.Client   // Optional, defaults to a 30s-timeout client
	Logger                *slog.Logger
}

// Client implements ports.IdentityClient against an OIDC provider. Discovery happens
// in Init; the constructor does no I/O.
type Client struct {
	cfg        ClientConfig
	parser     *claims.Parser
	httpClient *http.Client
	logger     *slog.Logger

	// set by Init
	provider      *gooidc.Provider
	verifier      *gooidc.IDTokenVerifier
	oauth         *oauth2.Config
	credentials   *clientcredentials.Config
	endSessionURL string

	refreshGroup singleflight.Group

	mu          sync.Mutex
	token       *oauth2.Token
	hooks       ports.IdentityHooks
	expiryTimer *time.Timer
}

var _ ports.IdentityClient = (*Client)(nil)

// NewClient validates cfg and returns an uninitialized client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	switch cfg.Grant {
	case "":
		cfg.Grant = GrantRefreshToken
	case GrantRefreshToken:
	case GrantClientCredentials:
		if cfg.ClientSecret == "" {
			return nil, errors.New("client secret is required for client_credentials")
		}
	default:
		return nil, fmt.Errorf("unsupported grant %q", cfg.Grant)
	}
	cfg.IssuerURL = strings.TrimSuffix(cfg.IssuerURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	parser := cfg.Claims
	if parser == nil {
		parser = claims.MustNewParser(claims.DefaultPaths())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:        cfg,
		parser:     parser,
		httpClient: httpClient,
		logger:     logger.With("component", "oidc_client", "issuer", cfg.IssuerURL),
	}, nil
}

func (c *Client) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// Init runs discovery and obtains the first token with the configured grant. Without
// a credential, or when the provider rejects it, the session is unauthenticated.
func (c *Client) Init(ctx context.Context) (bool, error) {
	ctx = c.httpContext(ctx)
	op, err := gooidc.NewProvider(ctx, c.cfg.IssuerURL)
	if err != nil {
		return false, fmt.Errorf("oidc discovery: %w", err)
	}
	var extra struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if claimsErr := op.Claims(&extra); claimsErr != nil {
		return false, fmt.Errorf("decode discovery document: %w", claimsErr)
	}

	scopes := strings.Fields(c.cfg.Scope)
	c.provider = op
	c.verifier = op.Verifier(&gooidc.Config{ClientID: c.cfg.ClientID})
	c.endSessionURL = extra.EndSessionEndpoint
	c.oauth = &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Scopes:       scopes,
		Endpoint:     op.Endpoint(),
	}
	c.credentials = &clientcredentials.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		TokenURL:     op.Endpoint().TokenURL,
		Scopes:       scopes,
	}

	if c.cfg.Grant == GrantRefreshToken && c.cfg.RefreshToken == "" {
		return false, nil
	}

	tok, err := c.grant(ctx, c.cfg.RefreshToken)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			c.logger.InfoContext(ctx, "provider rejected bootstrap credential", "error_code", rerr.ErrorCode)
			return false, nil
		}
		return false, fmt.Errorf("obtain token: %w", err)
	}
	if verr := c.verifyIDToken(ctx, tok); verr != nil {
		return false, verr
	}
	c.store(tok)
	return true, nil
}

func (c *Client) grant(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if c.cfg.Grant == GrantClientCredentials {
		return c.credentials.Token(ctx)
	}
	return c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
}

func (c *Client) verifyIDToken(ctx context.Context, tok *oauth2.Token) error {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil
	}
	if _, err := c.verifier.Verify(ctx, raw); err != nil {
		return fmt.Errorf("verify id_token: %w", err)
	}
	return nil
}

// UpdateToken refreshes when the access token expires within minValidity. Concurrent
// callers share one refresh.
func (c *Client) UpdateToken(ctx context.Context, minValidity time.Duration) (bool, error) {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	if tok == nil {
		return false, ErrNoSession
	}
	if !expiresWithin(tok, minValidity) {
		return false, nil
	}

	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		fresh, err := c.grant(c.httpContext(ctx), tok.RefreshToken)
		if err != nil {
			return nil, err
		}
		if fresh.RefreshToken == "" {
			fresh.RefreshToken = tok.RefreshToken
		}
		c.store(fresh)
		return nil, nil
	})
	if err != nil {
		return false, fmt.Errorf("refresh token: %w", err)
	}
	return true, nil
}

// store records tok and arms the expiry signal.
func (c *Client) store(tok *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = tok
	if c.expiryTimer != nil {
		c.expiryTimer.Stop()
		c.expiryTimer = nil
	}
	if tok.Expiry.IsZero() {
		return
	}
	c.expiryTimer = time.AfterFunc(time.Until(tok.Expiry), c.expired)
}

func (c *Client) expired() {
	c.mu.Lock()
	hook := c.hooks.OnTokenExpired
	c.mu.Unlock()
	c.logger.Debug("access token expired")
	if hook != nil {
		hook()
	}
}

func expiresWithin(tok *oauth2.Token, d time.Duration) bool {
	if tok == nil || tok.AccessToken == "" {
		return true
	}
	if tok.Expiry.IsZero() {
		return false
	}
	return time.Until(tok.Expiry) < d
}

// Logout ends the provider session via end_session_endpoint. Local tokens are
// dropped even if the call fails.
func (c *Client) Logout(ctx context.Context, opts domainauth.LogoutOptions) error {
	c.mu.Lock()
	tok := c.token
	c.token = nil
	if c.expiryTimer != nil {
		c.expiryTimer.Stop()
		c.expiryTimer = nil
	}
	c.mu.Unlock()

	if tok == nil || c.endSessionURL == "" {
		return nil
	}

	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	if c.cfg.ClientSecret != "" {
		form.Set("client_secret", c.cfg.ClientSecret)
	}
	if tok.RefreshToken != "" {
		form.Set("refresh_token", tok.RefreshToken)
	}
	if idToken, _ := tok.Extra("id_token").(string); idToken != "" {
		form.Set("id_token_hint", idToken)
	}
	redirect := opts.RedirectURL
	if redirect == "" {
		redirect = c.cfg.PostLogoutRedirectURL
	}
	if redirect != "" {
		form.Set("post_logout_redirect_uri", redirect)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endSessionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("end session: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// userInfoClaims covers the standard OIDC userinfo claims plus Keycloak's attributes.
type userInfoClaims struct {
	Subject           string         `json:"sub"`
	PreferredUsername string         `json:"preferred_username"`
	GivenName         string         `json:"given_name"`
	FamilyName        string         `json:"family_name"`
	Email             string         `json:"email"`
	PhoneNumber       string         `json:"phone_number"`
	Attributes        map[string]any `json:"attributes"`
}

// LoadUserProfile fetches the userinfo endpoint with the current access token.
func (c *Client) LoadUserProfile(ctx context.Context) (domainauth.Profile, error) {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	if tok == nil || c.provider == nil {
		return domainauth.Profile{}, ErrNoSession
	}

	ui, err := c.provider.UserInfo(c.httpContext(ctx), oauth2.StaticTokenSource(tok))
	if err != nil {
		return domainauth.Profile{}, fmt.Errorf("fetch user info: %w", err)
	}
	var uc userInfoClaims
	if claimsErr := ui.Claims(&uc); claimsErr != nil {
		return domainauth.Profile{}, fmt.Errorf("decode user info: %w", claimsErr)
	}
	return mapProfile(uc), nil
}

func mapProfile(uc userInfoClaims) domainauth.Profile {
	attrs := UnwrapAttributes(uc.Attributes)
	phone := uc.PhoneNumber
	if phone == "" {
		phone, _ = attrs["phone"].(string)
	}
	return domainauth.Profile{
		ID:        uc.Subject,
		Username:  uc.PreferredUsername,
		FirstName: uc.GivenName,
		LastName:  uc.FamilyName,
		Email:     uc.Email,
		Phone:     phone,
		Enabled:   true,
	}
}

// UnwrapAttributes flattens Keycloak's list-valued attributes: single-element lists
// become their element and "true"/"false" strings are lower-cased.
func UnwrapAttributes(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if list, ok := v.([]any); ok && len(list) == 1 {
			v = list[0]
		}
		if s, ok := v.(string); ok {
			if lower := strings.ToLower(s); lower == "true" || lower == "false" {
				v = lower
			}
		}
		out[k] = v
	}
	return out
}

// AccountManagementURL returns the Keycloak account console for the realm.
func (c *Client) AccountManagementURL() string {
	return c.cfg.IssuerURL + "/account"
}

// IsTokenExpired reports whether the access token expires within minValidity.
func (c *Client) IsTokenExpired(minValidity time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return expiresWithin(c.token, minValidity)
}

// Tokens returns the current token set.
func (c *Client) Tokens() domainauth.Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil {
		return domainauth.Tokens{}
	}
	idToken, _ := c.token.Extra("id_token").(string)
	return domainauth.Tokens{
		AccessToken:  c.token.AccessToken,
		RefreshToken: c.token.RefreshToken,
		IDToken:      idToken,
		ExpiresAt:    c.token.Expiry,
	}
}

// Claims decodes the current access token.
func (c *Client) Claims() (domainauth.Claims, error) {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	if tok == nil {
		return domainauth.Claims{}, ErrNoSession
	}
	return c.parser.Parse(tok.AccessToken)
}

// SetHooks registers the out-of-band hooks.
func (c *Client) SetHooks(h ports.IdentityHooks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = h
}
