package service

import (
	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
	"github.com/two-shoulder/authsession/internal/ports"
)

// EventKind names a session state transition.
type EventKind string

const (
	EventReset          EventKind = "RESET"
	EventLoading        EventKind = "LOADING"
	EventInitialized    EventKind = "INITIALIZED"
	EventError          EventKind = "ERROR"
	EventTokenUpdated   EventKind = "TOKEN_UPDATED"
	EventAccessResolved EventKind = "ACCESS_RESOLVED"
	EventProfileLoaded  EventKind = "PROFILE_LOADED"
)

// Event is a state transition delivered to every attached session view.
// The set is closed: only types in this package implement it.
type Event interface {
	Kind() EventKind
	sessionEvent()
}

// ResetEvent clears all session state.
type ResetEvent struct{}

// LoadingEvent marks the start of initialization.
type LoadingEvent struct{}

// InitializedEvent carries the initialized client and whether a user is signed in.
type InitializedEvent struct {
	Client        ports.IdentityClient
	Authenticated bool
}

// ErrorEvent carries a user-facing message. Err is the underlying cause, if any.
type ErrorEvent struct {
	Message string
	Err     error
}

// TokenUpdatedEvent carries a new token pair.
type TokenUpdatedEvent struct {
	Token        string
	RefreshToken string
}

// AccessResolvedEvent carries the resolved roles and module permissions for the current token.
type AccessResolvedEvent struct {
	Access domainauth.Access
}

// ProfileLoadedEvent carries the signed-in user's profile.
type ProfileLoadedEvent struct {
	Profile domainauth.Profile
}

func (ResetEvent) Kind() EventKind          { return EventReset }
func (LoadingEvent) Kind() EventKind        { return EventLoading }
func (InitializedEvent) Kind() EventKind    { return EventInitialized }
func (ErrorEvent) Kind() EventKind          { return EventError }
func (TokenUpdatedEvent) Kind() EventKind   { return EventTokenUpdated }
func (AccessResolvedEvent) Kind() EventKind { return EventAccessResolved }
func (ProfileLoadedEvent) Kind() EventKind  { return EventProfileLoaded }

func (ResetEvent) sessionEvent()          {}
func (LoadingEvent) sessionEvent()        {}
func (InitializedEvent) sessionEvent()    {}
func (ErrorEvent) sessionEvent()          {}
func (TokenUpdatedEvent) sessionEvent()   {}
func (AccessResolvedEvent) sessionEvent() {}
func (ProfileLoadedEvent) sessionEvent()  {}
