package service

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
	apperrors "github.com/two-shoulder/authsession/internal/errors"
	"github.com/two-shoulder/authsession/internal/ports"
)

// SessionView is one consumer's attachment to the shared session. It keeps a local
// copy of the login state, folded from broadcast events, and exposes the session
// operations. Views are cheap; create one per consumer and Detach it when done.
type SessionView struct {
	manager *SessionManager
	sub     *Subscription

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	state    domainauth.LoginState
	client   ports.IdentityClient
	detached bool
	onChange []func(domainauth.LoginState)
}

func newSessionView(m *SessionManager) *SessionView {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionView{manager: m, ctx: ctx, cancel: cancel}
}

// adopt seeds the view from the shared state so an already-initialized session is
// visible immediately.
func (v *SessionView) adopt(snap SessionSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.client = snap.Client
	v.state = domainauth.LoginState{
		Authenticated: snap.Authenticated,
		Loading:       snap.Phase.NeedsInit() || snap.Phase == domainauth.PhaseInitializing,
		Error:         snap.LastError,
		UserInfo:      snap.Profile,
		Token:         snap.Tokens.AccessToken,
		RefreshToken:  snap.Tokens.RefreshToken,
		Access:        snap.Access,
	}
}

// apply folds one event into the local state. Unknown kinds are ignored.
func (v *SessionView) apply(ev Event) {
	v.mu.Lock()
	if v.detached {
		v.mu.Unlock()
		return
	}
	switch e := ev.(type) {
	case ResetEvent:
		v.state = domainauth.LoginState{}
		v.client = nil
	case LoadingEvent:
		v.state.Loading = true
		v.state.Error = ""
	case InitializedEvent:
		v.client = e.Client
		v.state.Authenticated = e.Authenticated
		v.state.Loading = false
		v.state.Error = ""
	case ErrorEvent:
		v.state.Error = e.Message
		v.state.Loading = false
	case TokenUpdatedEvent:
		v.state.Token = e.Token
		v.state.RefreshToken = e.RefreshToken
	case AccessResolvedEvent:
		v.state.Access = e.Access.Clone()
	case ProfileLoadedEvent:
		p := e.Profile
		v.state.UserInfo = &p
	default:
		v.mu.Unlock()
		return
	}
	state := v.stateLocked()
	listeners := append([]func(domainauth.LoginState){}, v.onChange...)
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// OnChange registers fn to be called with the new state after every applied event.
func (v *SessionView) OnChange(fn func(domainauth.LoginState)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onChange = append(v.onChange, fn)
}

// State returns a copy of the local login state.
func (v *SessionView) State() domainauth.LoginState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stateLocked()
}

func (v *SessionView) stateLocked() domainauth.LoginState {
	s := v.state
	s.Access = s.Access.Clone()
	if s.Access.Permissions == nil {
		s.Access.Permissions = map[string]bool{}
	}
	if s.UserInfo != nil {
		p := *s.UserInfo
		s.UserInfo = &p
	}
	return s
}

func (v *SessionView) authenticated() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.Authenticated && !v.detached
}

// WaitReady blocks until the shared session has initialized and reports whether a
// user is signed in. It returns early if ctx is done or the view is detached.
func (v *SessionView) WaitReady(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(v.ctx, cancel)
	defer stop()
	return v.manager.Initialize(ctx)
}

// Logout ends the shared session for every view.
func (v *SessionView) Logout(ctx context.Context, opts domainauth.LogoutOptions) error {
	return v.manager.Logout(ctx, opts)
}

// UpdateProfile reloads the user profile.
func (v *SessionView) UpdateProfile(ctx context.Context) (domainauth.Profile, error) {
	if !v.authenticated() {
		return domainauth.Profile{}, apperrors.ErrNotAuthenticated
	}
	return v.manager.LoadProfile(ctx)
}

// UpdateToken refreshes the token if it expires within minValidity.
func (v *SessionView) UpdateToken(ctx context.Context, minValidity time.Duration) (bool, error) {
	if !v.authenticated() {
		return false, apperrors.ErrNotAuthenticated
	}
	return v.manager.UpdateToken(ctx, minValidity)
}

// Token returns the access token known to this view, or "".
func (v *SessionView) Token() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.Token
}

// IsTokenExpired reports whether the token expires within minValidity. Without a
// client the token is considered expired.
func (v *SessionView) IsTokenExpired(minValidity time.Duration) bool {
	v.mu.RLock()
	client := v.client
	v.mu.RUnlock()
	if client == nil {
		return true
	}
	return client.IsTokenExpired(minValidity)
}

// HasModulePermission reports whether the signed-in user may use module.
func (v *SessionView) HasModulePermission(module string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.state.Authenticated {
		return false
	}
	return v.state.Access.Allows(module)
}

// UserRoles returns the realm and client roles of the signed-in user.
func (v *SessionView) UserRoles() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.state.Access.Roles...)
}

// HasSuperRole reports whether the user holds the super role.
func (v *SessionView) HasSuperRole() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.Authenticated && v.state.Access.SuperRole
}

// AccountManagementURL returns the provider's account page, or "" without a client.
func (v *SessionView) AccountManagementURL() string {
	v.mu.RLock()
	client := v.client
	v.mu.RUnlock()
	if client == nil {
		return ""
	}
	return client.AccountManagementURL()
}

// Detach unsubscribes the view and cancels its pending waits. The shared session is
// not affected. Detach is idempotent.
func (v *SessionView) Detach() {
	v.mu.Lock()
	if v.detached {
		v.mu.Unlock()
		return
	}
	v.detached = true
	v.onChange = nil
	v.mu.Unlock()

	v.sub.Unsubscribe()
	v.cancel()
	v.manager.emitSubscribers()
}
