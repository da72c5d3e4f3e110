// Package httpauth attaches the session's bearer token to outgoing HTTP requests.
package httpauth

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/two-shoulder/authsession/internal/ports"
)

var _ ports.RequestAuthenticator = (*Client)(nil)

// ClientOptions configures a Client.
type ClientOptions struct {
	Base   http.RoundTripper // Optional; defaults to http.DefaultTransport
	Logger *slog.Logger
}

// Client is an http.RoundTripper that authorizes requests with the registered
// token supplier and signs the session out when the backend rejects the token.
type Client struct {
	base   http.RoundTripper
	logger *slog.Logger

	mu       sync.RWMutex
	supplier ports.TokenSupplier
	signOut  func()
}

// NewClient creates a Client with no supplier registered.
func NewClient(opts ClientOptions) *Client {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{base: base, logger: logger.With("component", "httpauth")}
}

// RegisterTokenSupplier replaces the token supplier and sign-out callback.
func (c *Client) RegisterTokenSupplier(supplier ports.TokenSupplier, signOut func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supplier = supplier
	c.signOut = signOut
}

// HTTPClient returns an *http.Client using c as its transport.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{Transport: c}
}

// RoundTrip implements http.RoundTripper. Requests go out unauthenticated when
// there is no token.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.RLock()
	supplier, signOut := c.supplier, c.signOut
	c.mu.RUnlock()

	var token string
	if supplier != nil {
		token = supplier()
	}

	rt := c.base
	if token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.base,
		}
	}

	resp, err := rt.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if token != "" && signOut != nil && rejectsToken(resp) {
		c.logger.Warn("backend rejected access token; signing out",
			"status", resp.StatusCode, "url", req.URL.Redacted())
		signOut()
	}
	return resp, nil
}

// rejectsToken reports whether resp means the token itself is unusable. A 403
// only counts when the challenge names invalid_token.
func rejectsToken(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		return strings.Contains(resp.Header.Get("WWW-Authenticate"), "invalid_token")
	default:
		return false
	}
}
