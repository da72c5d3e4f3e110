package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRefreshInterval is the delay between periodic refresh checks.
	DefaultRefreshInterval = 5 * time.Minute
	// DefaultMinValidity is the remaining lifetime below which a token is refreshed.
	DefaultMinValidity = 30 * time.Second
)

// RefreshState is the scheduler lifecycle state.
type RefreshState string

const (
	RefreshStopped    RefreshState = "stopped"
	RefreshScheduled  RefreshState = "scheduled"
	RefreshRefreshing RefreshState = "refreshing"
	RefreshFailed     RefreshState = "failed"
)

// AfterFunc arms a single-shot timer calling f after d and returns a function that disarms it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

// RealAfterFunc is AfterFunc backed by time.AfterFunc.
func RealAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// RefreshFunc performs one refresh check and reports whether the token changed.
type RefreshFunc func(ctx context.Context, minValidity time.Duration) (bool, error)

// TokenRefreshSchedulerOptions configures a TokenRefreshScheduler.
type TokenRefreshSchedulerOptions struct {
	Refresh     RefreshFunc // Required
	Interval    time.Duration
	MinValidity time.Duration
	AfterFunc   AfterFunc
	Logger      *slog.Logger
}

// TokenRefreshScheduler keeps at most one pending timer. Each successful check
// re-arms it; a failed check parks the scheduler until the next Start. Close is
// terminal.
type TokenRefreshScheduler struct {
	refresh     RefreshFunc
	interval    time.Duration
	minValidity time.Duration
	afterFunc   AfterFunc
	logger      *slog.Logger

	mu        sync.Mutex
	state     RefreshState
	gen       uint64
	stopTimer func() bool
	ctx       context.Context
	cancel    context.CancelFunc
	closed    bool
}

// NewTokenRefreshScheduler constructs a stopped scheduler.
func NewTokenRefreshScheduler(opts TokenRefreshSchedulerOptions) *TokenRefreshScheduler {
	s := &TokenRefreshScheduler{
		refresh:     opts.Refresh,
		interval:    opts.Interval,
		minValidity: opts.MinValidity,
		afterFunc:   opts.AfterFunc,
		logger:      opts.Logger,
		state:       RefreshStopped,
	}
	if s.interval <= 0 {
		s.interval = DefaultRefreshInterval
	}
	if s.minValidity <= 0 {
		s.minValidity = DefaultMinValidity
	}
	if s.afterFunc == nil {
		s.afterFunc = RealAfterFunc
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "token_refresh")
	return s
}

// State returns the current lifecycle state.
func (s *TokenRefreshScheduler) State() RefreshState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start cancels any pending timer, arms a new one, and runs one check immediately.
// It does nothing after Close.
func (s *TokenRefreshScheduler) Start() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.invalidateLocked()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	gen := s.gen
	s.state = RefreshScheduled
	s.armLocked(gen)
	s.mu.Unlock()

	s.attempt(gen)
}

// Stop disarms the timer and abandons any in-flight check.
func (s *TokenRefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
	s.state = RefreshStopped
}

// Fail parks the scheduler after a terminal refresh error observed elsewhere.
func (s *TokenRefreshScheduler) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.invalidateLocked()
	s.state = RefreshFailed
}

// Close stops the scheduler for good. Later Start and RefreshNow calls are no-ops,
// so a caller racing a logout cannot re-arm a discarded session.
func (s *TokenRefreshScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
	s.state = RefreshStopped
	s.closed = true
}

// RefreshNow runs a check outside the timer cadence, e.g. on an expiry signal.
// It is a no-op unless the scheduler is armed and idle.
func (s *TokenRefreshScheduler) RefreshNow() {
	s.mu.Lock()
	if s.state != RefreshScheduled {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	s.mu.Unlock()

	s.attempt(gen)
}

func (s *TokenRefreshScheduler) attempt(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != RefreshScheduled {
		s.mu.Unlock()
		return
	}
	s.state = RefreshRefreshing
	ctx := s.ctx
	s.mu.Unlock()

	refreshed, err := s.refresh(ctx, s.minValidity)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if err != nil {
		s.logger.Warn("token refresh failed; awaiting re-authentication", "error", err)
		s.invalidateLocked()
		s.state = RefreshFailed
		return
	}
	if refreshed {
		s.logger.Debug("token refreshed")
	}
	s.state = RefreshScheduled
	s.armLocked(gen)
}

func (s *TokenRefreshScheduler) armLocked(gen uint64) {
	if s.stopTimer != nil {
		s.stopTimer()
	}
	s.stopTimer = s.afterFunc(s.interval, func() { s.attempt(gen) })
}

func (s *TokenRefreshScheduler) invalidateLocked() {
	s.gen++
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
