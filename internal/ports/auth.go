package ports

// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
)

// IdentityHooks receive events the identity client observes on its own, outside of
// calls made through IdentityClient. Results of Init/UpdateToken/Logout are returned
// to the caller and never reported through hooks.
type IdentityHooks struct {
	OnTokenExpired       func()
	OnAuthRefreshSuccess func()
	OnAuthRefreshError   func(err error)
	OnAuthLogout         func()
}

// IdentityClient owns a single identity-provider client instance and its lifecycle.
type IdentityClient interface {
	// Init contacts the provider and reports whether a session is authenticated.
	Init(ctx context.Context) (bool, error)

	// UpdateToken refreshes the token if it expires within minValidity.
	// It reports whether a refresh happened. An error is terminal for the session.
	UpdateToken(ctx context.Context, minValidity time.Duration) (bool, error)

	// Logout ends the provider session.
	Logout(ctx context.Context, opts domainauth.LogoutOptions) error

	// LoadUserProfile fetches the profile of the authenticated user.
	LoadUserProfile(ctx context.Context) (domainauth.Profile, error)

	// AccountManagementURL returns the provider's self-service account page.
	AccountManagementURL() string

	// IsTokenExpired reports whether the access token expires within minValidity.
	IsTokenExpired(minValidity time.Duration) bool

	// Tokens returns the current token pair.
	Tokens() domainauth.Tokens

	// Claims parses the current access token.
	Claims() (domainauth.Claims, error)

	// SetHooks registers the out-of-band event hooks. It replaces any previous hooks.
	SetHooks(h IdentityHooks)
}

// IdentityClientFactory constructs a fresh, uninitialized identity client.
type IdentityClientFactory func() (IdentityClient, error)

// PermissionResolver derives module permissions from token claims.
type PermissionResolver interface {
	Resolve(claims domainauth.Claims, userRoles []string) domainauth.Access
}

// TokenSupplier returns the current access token, or "" when there is none.
type TokenSupplier func() string

// RequestAuthenticator is the request layer's registration point. The supplier is
// consulted on every outgoing call; signOut is called on unrecoverable auth failure,
// from inside the request path, and must not block on the identity provider.
type RequestAuthenticator interface {
	RegisterTokenSupplier(supplier TokenSupplier, signOut func())
}

// LogoutNotice is a back-channel logout published by the backend.
type LogoutNotice struct {
	Subject   string `json:"sub"`
	SessionID string `json:"sid,omitempty"`
}
