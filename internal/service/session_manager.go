package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
	apperrors "github.com/two-shoulder/authsession/internal/errors"
	"github.com/two-shoulder/authsession/internal/observability/metrics"
	"github.com/two-shoulder/authsession/internal/observability/statsd"
	"github.com/two-shoulder/authsession/internal/ports"
)

const initFlightKey = "init"

// DefaultLogoutTimeout bounds the provider logout started after a request was
// rejected for authentication.
const DefaultLogoutTimeout = 10 * time.Second

// SessionManagerOptions configures a SessionManager.
type SessionManagerOptions struct {
	Clients  ports.IdentityClientFactory // Required
	Resolver ports.PermissionResolver    // Required
	Config   SessionConfig
}

// SessionConfig holds the optional collaborators and tuning of a SessionManager.
type SessionConfig struct {
	RefreshInterval time.Duration
	MinValidity     time.Duration
	SkipProfile     bool
	LogoutTimeout   time.Duration
	AfterFunc       AfterFunc
	Logger          *slog.Logger
	Metrics         statsd.Sink
}

// SessionSnapshot is a consistent copy of the shared session state.
type SessionSnapshot struct {
	Phase         domainauth.Phase
	Authenticated bool
	Client        ports.IdentityClient
	Tokens        domainauth.Tokens
	Claims        domainauth.Claims
	Access        domainauth.Access
	Profile       *domainauth.Profile
	LastError     string
}

// queuedEvent is an event waiting for delivery, numbered in commit order.
type queuedEvent struct {
	seq uint64
	ev  Event
}

// SessionManager owns the single process-wide session: the identity client, its
// initialization phase, the current tokens, and the resolved access.
//
// Every transition queues its events while the state lock is held, so events are
// delivered in the order their changes were committed. Delivery happens after the
// lock is released, one drain at a time.
type SessionManager struct {
	clients  ports.IdentityClientFactory
	resolver ports.PermissionResolver
	cfg      SessionConfig
	bus      *Broadcaster
	logger   *slog.Logger

	initGroup singleflight.Group

	mu            sync.Mutex
	phase         domainauth.Phase
	gen           uint64
	client        ports.IdentityClient
	scheduler     *TokenRefreshScheduler
	authenticated bool
	tokens        domainauth.Tokens
	claims        domainauth.Claims
	access        domainauth.Access
	profile       *domainauth.Profile
	lastError     string

	seq      uint64
	pending  []queuedEvent
	draining bool
	// delivering is the sequence number of the event being broadcast, 0 when idle.
	delivering atomic.Uint64
}

// NewSessionManager constructs an idle SessionManager.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	logger := opts.Config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	cfg.Logger = logger
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.MinValidity <= 0 {
		cfg.MinValidity = DefaultMinValidity
	}
	if cfg.LogoutTimeout <= 0 {
		cfg.LogoutTimeout = DefaultLogoutTimeout
	}
	return &SessionManager{
		clients:  opts.Clients,
		resolver: opts.Resolver,
		cfg:      cfg,
		bus:      NewBroadcaster(logger),
		logger:   logger.With("component", "session_manager"),
		phase:    domainauth.PhaseIdle,
	}
}

// Subscribe registers fn for every subsequent session event.
func (m *SessionManager) Subscribe(fn func(Event)) *Subscription {
	return m.bus.Subscribe(fn)
}

// Snapshot returns a copy of the shared state.
func (m *SessionManager) Snapshot() SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *SessionManager) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{
		Phase:         m.phase,
		Authenticated: m.authenticated,
		Client:        m.client,
		Tokens:        m.tokens,
		Claims:        m.claims,
		Access:        m.access.Clone(),
		LastError:     m.lastError,
	}
	if m.profile != nil {
		p := *m.profile
		snap.Profile = &p
	}
	return snap
}

// Phase returns the initialization phase.
func (m *SessionManager) Phase() domainauth.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Token returns the last known access token, or "" when signed out. After a failed
// refresh the stale token is still returned.
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.AccessToken
}

// Initialize creates and initializes the identity client at most once per idle or
// failed phase. Concurrent callers share a single attempt and its result; ctx only
// bounds how long this caller waits.
func (m *SessionManager) Initialize(ctx context.Context) (bool, error) {
	if ok, done := m.initializedResult(); done {
		return ok, nil
	}

	ch := m.initGroup.DoChan(initFlightKey, func() (any, error) {
		return m.runInit(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		authenticated, _ := res.Val.(bool)
		return authenticated, nil
	}
}

func (m *SessionManager) initializedResult() (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated, m.phase == domainauth.PhaseInitialized
}

func (m *SessionManager) runInit(ctx context.Context) (bool, error) {
	m.mu.Lock()
	if m.phase == domainauth.PhaseInitialized {
		authenticated := m.authenticated
		m.mu.Unlock()
		return authenticated, nil
	}
	m.phase = domainauth.PhaseInitializing
	m.lastError = ""
	gen := m.gen
	m.publishLocked(LoadingEvent{})
	m.mu.Unlock()
	m.deliver()

	start := time.Now()

	client, authenticated, err := m.newClient(ctx)
	if err != nil {
		return false, m.failInit(gen, err, start)
	}

	m.mu.Lock()
	if m.gen != gen {
		// Logout ran while the provider was initializing.
		m.mu.Unlock()
		m.logger.InfoContext(ctx, "discarding initialization superseded by logout")
		return false, nil
	}
	m.phase = domainauth.PhaseInitialized
	m.client = client
	m.authenticated = authenticated
	m.publishLocked(InitializedEvent{Client: client, Authenticated: authenticated})
	var sched *TokenRefreshScheduler
	if authenticated {
		m.tokens = client.Tokens()
		claims, access := m.resolveLocked(client)
		m.claims = claims
		m.access = access
		sched = m.newScheduler(client)
		m.scheduler = sched
		m.publishLocked(
			TokenUpdatedEvent{Token: m.tokens.AccessToken, RefreshToken: m.tokens.RefreshToken},
			AccessResolvedEvent{Access: access.Clone()},
		)
	}
	m.mu.Unlock()

	m.emit(metrics.OpInit, metrics.ResultSuccess, time.Since(start), nil)
	m.logger.InfoContext(ctx, "session initialized", "authenticated", authenticated)
	m.deliver()
	if !authenticated {
		return false, nil
	}

	if !m.cfg.SkipProfile && m.isCurrent(gen, client) {
		// Profile errors are surfaced as ERROR events and do not fail initialization.
		_, _ = m.loadProfile(ctx, client)
	}
	if !m.isCurrent(gen, client) {
		m.logger.InfoContext(ctx, "discarding initialization superseded by logout")
		return false, nil
	}
	// A logout after this check closes sched, which turns Start into a no-op.
	sched.Start()
	return true, nil
}

// isCurrent reports whether client is still the session started in generation gen.
func (m *SessionManager) isCurrent(gen uint64, client ports.IdentityClient) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen == gen && m.client == client
}

func (m *SessionManager) newClient(ctx context.Context) (ports.IdentityClient, bool, error) {
	client, err := m.clients()
	if err != nil {
		return nil, false, err
	}
	client.SetHooks(m.hooksFor(client))
	authenticated, err := client.Init(ctx)
	if err != nil {
		return nil, false, err
	}
	return client, authenticated, nil
}

func (m *SessionManager) failInit(gen uint64, cause error, start time.Time) error {
	err := apperrors.Initialization(cause)
	m.mu.Lock()
	if m.gen == gen {
		m.phase = domainauth.PhaseFailed
		m.lastError = apperrors.UserMessage(err)
		m.publishLocked(ErrorEvent{Message: m.lastError, Err: err})
	}
	m.mu.Unlock()

	m.emit(metrics.OpInit, metrics.ResultError, time.Since(start), err)
	m.logger.Error("session initialization failed", "error", cause)
	m.deliver()
	return err
}

func (m *SessionManager) newScheduler(client ports.IdentityClient) *TokenRefreshScheduler {
	return NewTokenRefreshScheduler(TokenRefreshSchedulerOptions{
		Refresh: func(ctx context.Context, minValidity time.Duration) (bool, error) {
			return m.refresh(ctx, client, minValidity)
		},
		Interval:    m.cfg.RefreshInterval,
		MinValidity: m.cfg.MinValidity,
		AfterFunc:   m.cfg.AfterFunc,
		Logger:      m.cfg.Logger,
	})
}

// resolveLocked parses the client's current claims and resolves access from them.
// Unparsable claims degrade to no access.
func (m *SessionManager) resolveLocked(client ports.IdentityClient) (domainauth.Claims, domainauth.Access) {
	claims, err := client.Claims()
	if err != nil {
		m.logger.Warn("token claims unavailable; permissions cleared", "error", err)
		claims = domainauth.Claims{}
	}
	return claims, m.resolver.Resolve(claims, claims.Roles())
}

// hooksFor binds out-of-band provider events to a specific client so that callbacks
// from a discarded client are ignored.
func (m *SessionManager) hooksFor(client ports.IdentityClient) ports.IdentityHooks {
	return ports.IdentityHooks{
		OnTokenExpired: func() {
			if sched := m.schedulerFor(client); sched != nil {
				sched.RefreshNow()
			}
		},
		OnAuthRefreshSuccess: func() {
			m.syncTokens(client)
		},
		OnAuthRefreshError: func(err error) {
			m.failRefresh(client, apperrors.Refresh(err))
		},
		OnAuthLogout: func() {
			m.resetIfCurrent(client, "provider")
		},
	}
}

func (m *SessionManager) schedulerFor(client ports.IdentityClient) *TokenRefreshScheduler {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != client {
		return nil
	}
	return m.scheduler
}

func (m *SessionManager) activeClient() (ports.IdentityClient, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil || !m.authenticated {
		return nil, false
	}
	return m.client, true
}

// UpdateToken refreshes the token if it expires within minValidity.
func (m *SessionManager) UpdateToken(ctx context.Context, minValidity time.Duration) (bool, error) {
	client, ok := m.activeClient()
	if !ok {
		return false, apperrors.ErrNotAuthenticated
	}
	return m.refresh(ctx, client, minValidity)
}

func (m *SessionManager) refresh(ctx context.Context, client ports.IdentityClient, minValidity time.Duration) (bool, error) {
	start := time.Now()
	refreshed, err := client.UpdateToken(ctx, minValidity)
	if err != nil {
		rerr := apperrors.Refresh(err)
		m.emit(metrics.OpRefresh, metrics.ResultError, time.Since(start), rerr)
		m.failRefresh(client, rerr)
		return false, rerr
	}
	if !refreshed {
		m.emit(metrics.OpRefresh, metrics.ResultNoop, time.Since(start), nil)
		return false, nil
	}
	m.emit(metrics.OpRefresh, metrics.ResultSuccess, time.Since(start), nil)
	m.syncTokens(client)
	return true, nil
}

// syncTokens copies a changed token pair from client into shared state, broadcasts
// it, and re-resolves access. Unchanged tokens produce no events.
func (m *SessionManager) syncTokens(client ports.IdentityClient) bool {
	m.mu.Lock()
	if m.client != client {
		m.mu.Unlock()
		return false
	}
	tokens := client.Tokens()
	if tokens.AccessToken == m.tokens.AccessToken && tokens.RefreshToken == m.tokens.RefreshToken {
		m.mu.Unlock()
		return false
	}
	m.tokens = tokens
	claims, access := m.resolveLocked(client)
	m.claims = claims
	m.access = access
	m.publishLocked(
		TokenUpdatedEvent{Token: tokens.AccessToken, RefreshToken: tokens.RefreshToken},
		AccessResolvedEvent{Access: access.Clone()},
	)
	m.mu.Unlock()

	m.deliver()
	return true
}

// failRefresh records a terminal refresh failure. The last token is kept so in-flight
// requests can still complete; the user is asked to sign in again.
func (m *SessionManager) failRefresh(client ports.IdentityClient, err error) {
	m.mu.Lock()
	if m.client != client {
		m.mu.Unlock()
		return
	}
	m.lastError = apperrors.ReloginMessage
	sched := m.scheduler
	m.publishLocked(ErrorEvent{Message: apperrors.ReloginMessage, Err: err})
	m.mu.Unlock()

	if sched != nil {
		sched.Fail()
	}
	m.logger.Warn("token refresh failed", "error", err)
	m.deliver()
}

// LoadProfile fetches the user profile and broadcasts it.
func (m *SessionManager) LoadProfile(ctx context.Context) (domainauth.Profile, error) {
	client, ok := m.activeClient()
	if !ok {
		return domainauth.Profile{}, apperrors.ErrNotAuthenticated
	}
	return m.loadProfile(ctx, client)
}

func (m *SessionManager) loadProfile(ctx context.Context, client ports.IdentityClient) (domainauth.Profile, error) {
	start := time.Now()
	profile, err := client.LoadUserProfile(ctx)
	if err != nil {
		perr := apperrors.ProfileLoad(err)
		m.emit(metrics.OpProfile, metrics.ResultError, time.Since(start), perr)
		m.logger.WarnContext(ctx, "user profile load failed", "error", err)

		m.mu.Lock()
		if m.client == client {
			m.lastError = apperrors.UserMessage(perr)
			m.publishLocked(ErrorEvent{Message: m.lastError, Err: perr})
		}
		m.mu.Unlock()
		m.deliver()
		return domainauth.Profile{}, perr
	}

	m.mu.Lock()
	if m.client != client {
		m.mu.Unlock()
		return profile, nil
	}
	profile.Roles = append([]string(nil), m.access.CustomRoles...)
	stored := profile
	m.profile = &stored
	m.publishLocked(ProfileLoadedEvent{Profile: profile})
	m.mu.Unlock()

	m.emit(metrics.OpProfile, metrics.ResultSuccess, time.Since(start), nil)
	m.deliver()
	return profile, nil
}

// Logout clears shared state, stops refreshing, and then ends the provider session.
// A provider failure is logged; local state is cleared regardless.
func (m *SessionManager) Logout(ctx context.Context, opts domainauth.LogoutOptions) error {
	client, _ := m.reset(nil)
	if client != nil {
		m.remoteLogout(ctx, client, opts)
	}
	return nil
}

// signOut clears the session at once and ends the provider session in the
// background, bounded by LogoutTimeout. It never blocks on the provider.
func (m *SessionManager) signOut() {
	client, _ := m.reset(nil)
	if client == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.LogoutTimeout)
		defer cancel()
		m.remoteLogout(ctx, client, domainauth.LogoutOptions{})
	}()
}

func (m *SessionManager) remoteLogout(ctx context.Context, client ports.IdentityClient, opts domainauth.LogoutOptions) {
	start := time.Now()
	if err := client.Logout(ctx, opts); err != nil {
		lerr := apperrors.Logout(err)
		m.emit(metrics.OpLogout, metrics.ResultError, time.Since(start), lerr)
		m.logger.WarnContext(ctx, "provider logout failed; local session cleared", "error", err)
		return
	}
	m.emit(metrics.OpLogout, metrics.ResultSuccess, time.Since(start), nil)
}

// HandleRemoteLogout clears the session if it belongs to subject. An empty subject
// matches any session. It reports whether the session was cleared.
func (m *SessionManager) HandleRemoteLogout(subject string) bool {
	_, ok := m.reset(func(current ports.IdentityClient) bool {
		return current != nil && m.authenticated && (subject == "" || m.claims.Subject == subject)
	})
	if ok {
		m.endedRemotely("back-channel")
	}
	return ok
}

func (m *SessionManager) resetIfCurrent(client ports.IdentityClient, source string) bool {
	_, ok := m.reset(func(current ports.IdentityClient) bool {
		return current != nil && current == client
	})
	if ok {
		m.endedRemotely(source)
	}
	return ok
}

func (m *SessionManager) endedRemotely(source string) {
	m.logger.Info("session ended remotely", "source", source)
	m.emit(metrics.OpLogout, metrics.ResultRemote, 0, nil)
}

// reset returns shared state to idle, closes the scheduler, and delivers RESET when
// match accepts the current client (a nil match always accepts). It returns the
// client that was active.
func (m *SessionManager) reset(match func(current ports.IdentityClient) bool) (ports.IdentityClient, bool) {
	m.mu.Lock()
	if match != nil && !match(m.client) {
		m.mu.Unlock()
		return nil, false
	}
	client, sched := m.client, m.scheduler
	m.gen++
	m.phase = domainauth.PhaseIdle
	m.client = nil
	m.scheduler = nil
	m.authenticated = false
	m.tokens = domainauth.Tokens{}
	m.claims = domainauth.Claims{}
	m.access = domainauth.Access{}
	m.profile = nil
	m.lastError = ""
	m.publishLocked(ResetEvent{})
	m.mu.Unlock()

	if sched != nil {
		sched.Close()
	}
	m.deliver()
	return client, true
}

// RegisterRequestAuth wires the request layer to the current token and to a
// non-blocking sign-out.
func (m *SessionManager) RegisterRequestAuth(ra ports.RequestAuthenticator) {
	ra.RegisterTokenSupplier(m.Token, m.signOut)
}

// Attach creates a view bound to the shared session. If the session has not been
// initialized, initialization starts in the background; use SessionView.WaitReady
// to wait for it.
func (m *SessionManager) Attach(ctx context.Context) *SessionView {
	v := newSessionView(m)

	// The snapshot and the subscription are taken together so that no committed
	// change is missing from the view or applied twice.
	m.mu.Lock()
	snap := m.snapshotLocked()
	v.adopt(snap)
	v.sub = m.bus.Subscribe(m.after(m.seq, v.apply))
	m.mu.Unlock()

	m.emitSubscribers()
	if snap.Phase.NeedsInit() {
		go func() {
			if _, err := m.Initialize(context.WithoutCancel(ctx)); err != nil {
				m.logger.Debug("background initialization failed", "error", err)
			}
		}()
	}
	return v
}

// after wraps fn so that it skips events numbered at or below seq, which are
// already part of the state fn's owner adopted.
func (m *SessionManager) after(seq uint64, fn func(Event)) func(Event) {
	return func(ev Event) {
		if cur := m.delivering.Load(); cur != 0 && cur <= seq {
			return
		}
		fn(ev)
	}
}

// publishLocked queues events behind everything committed before them. The
// caller holds m.mu and calls deliver once it is released.
func (m *SessionManager) publishLocked(evs ...Event) {
	for _, ev := range evs {
		m.seq++
		m.pending = append(m.pending, queuedEvent{seq: m.seq, ev: ev})
	}
}

// deliver broadcasts queued events in commit order. Only one goroutine drains at a
// time: a call made while a drain is running, including one from inside a
// subscriber, returns at once and its events go out with that drain.
func (m *SessionManager) deliver() {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true
	for len(m.pending) > 0 {
		next := m.pending[0]
		m.pending[0] = queuedEvent{}
		m.pending = m.pending[1:]
		m.mu.Unlock()

		m.delivering.Store(next.seq)
		m.bus.Notify(next.ev)

		m.mu.Lock()
	}
	m.draining = false
	m.delivering.Store(0)
	m.mu.Unlock()
}

func (m *SessionManager) emit(op, result string, d time.Duration, err error) {
	metrics.EmitSessionOperation(m.cfg.Metrics, metrics.SessionMetric{
		Operation: op,
		Result:    result,
		Duration:  d,
		Err:       err,
	})
}

func (m *SessionManager) emitSubscribers() {
	metrics.EmitSubscribers(m.cfg.Metrics, m.bus.Len())
}
