package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
	"github.com/two-shoulder/authsession/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityClient       = (*FakeIdentityClient)(nil)
	_ ports.RequestAuthenticator = (*RecordingRequestAuthenticator)(nil)
	_ ports.PermissionResolver   = StaticResolver{}
)

// FakeIdentityClient simulates an identity-provider client. Func fields override the
// default behavior; counters record how often each operation ran. It is safe for
// concurrent use.
type FakeIdentityClient struct {
	InitFunc            func(ctx context.Context) (bool, error)
	UpdateTokenFunc     func(ctx context.Context, minValidity time.Duration) (bool, error)
	LogoutFunc          func(ctx context.Context, opts domainauth.LogoutOptions) error
	LoadUserProfileFunc func(ctx context.Context) (domainauth.Profile, error)

	AccountURL string

	mu            sync.Mutex
	authenticated bool
	tokens        domainauth.Tokens
	claims        domainauth.Claims
	claimsErr     error
	profile       domainauth.Profile
	hooks         ports.IdentityHooks
	initCalls     int
	updateCalls   int
	logoutCalls   int
	profileCalls  int
}

// NewFakeIdentityClient returns a client that initializes as authenticated with
// the given tokens and claims.
func NewFakeIdentityClient(tokens domainauth.Tokens, claims domainauth.Claims) *FakeIdentityClient {
	return &FakeIdentityClient{
		AccountURL:    "https://idp.example.com/realms/two-shoulder/account",
		authenticated: true,
		tokens:        tokens,
		claims:        claims,
		profile: domainauth.Profile{
			ID:        claims.Subject,
			Username:  claims.PreferredUsername,
			FirstName: claims.GivenName,
			LastName:  claims.FamilyName,
			Email:     claims.Email,
			Enabled:   true,
		},
	}
}

// NewAnonymousIdentityClient returns a client that initializes without a session.
func NewAnonymousIdentityClient() *FakeIdentityClient {
	return &FakeIdentityClient{AccountURL: "https://idp.example.com/realms/two-shoulder/account"}
}

func (f *FakeIdentityClient) Init(ctx context.Context) (bool, error) {
	f.mu.Lock()
	f.initCalls++
	fn, authenticated := f.InitFunc, f.authenticated
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return authenticated, nil
}

func (f *FakeIdentityClient) UpdateToken(ctx context.Context, minValidity time.Duration) (bool, error) {
	f.mu.Lock()
	f.updateCalls++
	fn := f.UpdateTokenFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, minValidity)
	}
	return false, nil
}

func (f *FakeIdentityClient) Logout(ctx context.Context, opts domainauth.LogoutOptions) error {
	f.mu.Lock()
	f.logoutCalls++
	fn := f.LogoutFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, opts)
	}
	return nil
}

func (f *FakeIdentityClient) LoadUserProfile(ctx context.Context) (domainauth.Profile, error) {
	f.mu.Lock()
	f.profileCalls++
	fn, profile := f.LoadUserProfileFunc, f.profile
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return profile, nil
}

func (f *FakeIdentityClient) AccountManagementURL() string { return f.AccountURL }

func (f *FakeIdentityClient) IsTokenExpired(minValidity time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens.AccessToken == "" {
		return true
	}
	if f.tokens.ExpiresAt.IsZero() {
		return false
	}
	return time.Until(f.tokens.ExpiresAt) < minValidity
}

func (f *FakeIdentityClient) Tokens() domainauth.Tokens {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens
}

func (f *FakeIdentityClient) Claims() (domainauth.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims, f.claimsErr
}

func (f *FakeIdentityClient) SetHooks(h ports.IdentityHooks) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks = h
}

// Rotate replaces the current token pair and claims, as a provider refresh would.
func (f *FakeIdentityClient) Rotate(tokens domainauth.Tokens, claims domainauth.Claims) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = tokens
	f.claims = claims
}

// SetClaimsError makes Claims fail with err.
func (f *FakeIdentityClient) SetClaimsError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimsErr = err
}

// Hooks returns the hooks registered by the session manager.
func (f *FakeIdentityClient) Hooks() ports.IdentityHooks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hooks
}

// Calls returns the number of Init, UpdateToken, Logout, and LoadUserProfile calls.
func (f *FakeIdentityClient) Calls() (initCalls, updateCalls, logoutCalls, profileCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initCalls, f.updateCalls, f.logoutCalls, f.profileCalls
}

// FakeFactory hands out identity clients in order and counts constructions. When
// the list is exhausted the last client is reused.
type FakeFactory struct {
	Err error

	mu      sync.Mutex
	clients []*FakeIdentityClient
	calls   int
}

// NewFakeFactory creates a factory returning clients in order.
func NewFakeFactory(clients ...*FakeIdentityClient) *FakeFactory {
	return &FakeFactory{clients: clients}
}

// New satisfies ports.IdentityClientFactory.
func (f *FakeFactory) New() (ports.IdentityClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.clients) == 0 {
		return NewAnonymousIdentityClient(), nil
	}
	idx := f.calls - 1
	if idx >= len(f.clients) {
		idx = len(f.clients) - 1
	}
	return f.clients[idx], nil
}

// Calls returns how many clients were requested.
func (f *FakeFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// RecordingRequestAuthenticator captures the registration made by the session manager.
type RecordingRequestAuthenticator struct {
	mu       sync.Mutex
	supplier ports.TokenSupplier
	signOut  func()
}

func (r *RecordingRequestAuthenticator) RegisterTokenSupplier(supplier ports.TokenSupplier, signOut func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supplier = supplier
	r.signOut = signOut
}

// Token calls the registered supplier, or returns "" when none is registered.
func (r *RecordingRequestAuthenticator) Token() string {
	r.mu.Lock()
	supplier := r.supplier
	r.mu.Unlock()
	if supplier == nil {
		return ""
	}
	return supplier()
}

// SignOut calls the registered sign-out callback.
func (r *RecordingRequestAuthenticator) SignOut() {
	r.mu.Lock()
	fn := r.signOut
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// StaticResolver returns the same access for every claim set.
type StaticResolver struct {
	Access domainauth.Access
}

func (s StaticResolver) Resolve(_ domainauth.Claims, userRoles []string) domainauth.Access {
	a := s.Access.Clone()
	if a.Roles == nil {
		a.Roles = append([]string(nil), userRoles...)
	}
	return a
}
