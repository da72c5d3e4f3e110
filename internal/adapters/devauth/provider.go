// Package devauth provides a config-driven identity client for local development.
// It mints HS256 access tokens locally instead of talking to an identity provider.
package devauth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/two-shoulder/authsession/internal/adapters/claims"
	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
	"github.com/two-shoulder/authsession/internal/ports"
)

// ErrRevoked is returned when refreshing a session that was revoked.
var ErrRevoked = errors.New("dev auth: session revoked")

// ErrNoSession is returned by operations that need a token when none is held.
var ErrNoSession = errors.New("dev auth: no active session")

// Config controls the dev identity client.
// UserID and Email are required; everything else has a default.
type Config struct {
	UserID     string
	Email      string
	Username   string
	FirstName  string
	LastName   string
	Roles      []string
	Attributes map[string]string
	TokenTTL   time.Duration // default 5m when zero
	SigningKey []byte        // random per client when empty
	IssuerURL  string        // default http://localhost:8080/realms/dev
	Claims     *claims.Parser
}

// Client implements ports.IdentityClient with locally minted tokens.
type Client struct {
	cfg    Config
	parser *claims.Parser
	key    []byte

	mu        sync.Mutex
	tokens    domainauth.Tokens
	sessionID string
	hooks     ports.IdentityHooks
	revoked   bool
}

var _ ports.IdentityClient = (*Client)(nil)

// NewClient constructs a dev identity client from Config.
func NewClient(cfg Config) (*Client, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 5 * time.Minute
	}
	if cfg.Username == "" {
		cfg.Username, _, _ = strings.Cut(cfg.Email, "@")
	}
	if cfg.IssuerURL == "" {
		cfg.IssuerURL = "http://localhost:8080/realms/dev"
	}
	cfg.IssuerURL = strings.TrimSuffix(cfg.IssuerURL, "/")

	key := cfg.SigningKey
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("dev auth: generate signing key: %w", err)
		}
	}
	parser := cfg.Claims
	if parser == nil {
		parser = claims.MustNewParser(claims.DefaultPaths())
	}
	return &Client{cfg: cfg, parser: parser, key: key}, nil
}

// Init starts a session unless the client was revoked.
func (c *Client) Init(_ context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.revoked {
		return false, nil
	}
	c.sessionID = uuid.NewString()
	return true, c.mintLocked(c.cfg.TokenTTL)
}

// UpdateToken mints a new token when the current one expires within minValidity.
func (c *Client) UpdateToken(_ context.Context, minValidity time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.revoked {
		return false, ErrRevoked
	}
	if c.tokens.AccessToken == "" {
		return false, ErrNoSession
	}
	if time.Until(c.tokens.ExpiresAt) >= minValidity {
		return false, nil
	}
	return true, c.mintLocked(c.cfg.TokenTTL)
}

func (c *Client) mintLocked(ttl time.Duration) error {
	now := time.Now()
	exp := now.Add(ttl)
	attrs := make(map[string]any, len(c.cfg.Attributes))
	for k, v := range c.cfg.Attributes {
		attrs[k] = v
	}
	roles := make([]any, 0, len(c.cfg.Roles))
	for _, r := range c.cfg.Roles {
		roles = append(roles, r)
	}
	mc := jwt.MapClaims{
		"iss":                c.cfg.IssuerURL,
		"sub":                c.cfg.UserID,
		"sid":                c.sessionID,
		"jti":                uuid.NewString(),
		"iat":                now.Unix(),
		"exp":                exp.Unix(),
		"preferred_username": c.cfg.Username,
		"email":              c.cfg.Email,
		"given_name":         c.cfg.FirstName,
		"family_name":        c.cfg.LastName,
		"realm_access":       map[string]any{"roles": roles},
	}
	if len(attrs) > 0 {
		mc["role_attributes"] = attrs
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(c.key)
	if err != nil {
		return fmt.Errorf("dev auth: sign token: %w", err)
	}
	c.tokens = domainauth.Tokens{
		AccessToken:  signed,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    time.Unix(exp.Unix(), 0),
	}
	return nil
}

// Logout drops the local session.
func (c *Client) Logout(_ context.Context, _ domainauth.LogoutOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = domainauth.Tokens{}
	c.sessionID = ""
	return nil
}

// LoadUserProfile returns the configured identity.
func (c *Client) LoadUserProfile(_ context.Context) (domainauth.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens.AccessToken == "" {
		return domainauth.Profile{}, ErrNoSession
	}
	return domainauth.Profile{
		ID:        c.cfg.UserID,
		Username:  c.cfg.Username,
		FirstName: c.cfg.FirstName,
		LastName:  c.cfg.LastName,
		Email:     c.cfg.Email,
		Enabled:   true,
	}, nil
}

func (c *Client) AccountManagementURL() string { return c.cfg.IssuerURL + "/account" }

func (c *Client) IsTokenExpired(minValidity time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens.AccessToken == "" {
		return true
	}
	return time.Until(c.tokens.ExpiresAt) < minValidity
}

func (c *Client) Tokens() domainauth.Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) Claims() (domainauth.Claims, error) {
	c.mu.Lock()
	raw := c.tokens.AccessToken
	c.mu.Unlock()
	if raw == "" {
		return domainauth.Claims{}, ErrNoSession
	}
	return c.parser.Parse(raw)
}

func (c *Client) SetHooks(h ports.IdentityHooks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = h
}

// SetAttributes replaces the role attributes carried by subsequently minted tokens.
func (c *Client) SetAttributes(attrs map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Attributes = maps.Clone(attrs)
}

// Rotate mints a new token outside any caller request and reports it through
// OnAuthRefreshSuccess, as a provider-side silent refresh would.
func (c *Client) Rotate() error {
	c.mu.Lock()
	if c.revoked || c.tokens.AccessToken == "" {
		c.mu.Unlock()
		return ErrNoSession
	}
	if err := c.mintLocked(c.cfg.TokenTTL); err != nil {
		c.mu.Unlock()
		return err
	}
	hook := c.hooks.OnAuthRefreshSuccess
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

// ExpireNow marks the current token expired and fires OnTokenExpired.
func (c *Client) ExpireNow() {
	c.mu.Lock()
	c.tokens.ExpiresAt = time.Now()
	hook := c.hooks.OnTokenExpired
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// Revoke ends the session on the "provider" side: the token is dropped, further
// refreshes fail, and OnAuthLogout fires.
func (c *Client) Revoke() {
	c.mu.Lock()
	c.revoked = true
	c.tokens = domainauth.Tokens{}
	hook := c.hooks.OnAuthLogout
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
}
