package auth

// Package auth contains domain-level types for the client-side authentication session.
// It is pure and free of framework/adapter concerns.

import (
	"maps"
	"slices"
	"time"
)

// Phase is the initialization phase of the shared session.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseInitializing Phase = "initializing"
	PhaseInitialized  Phase = "initialized"
	PhaseFailed       Phase = "failed"
)

// NeedsInit reports whether an attaching consumer must drive initialization.
func (p Phase) NeedsInit() bool { return p == PhaseIdle || p == PhaseFailed || p == "" }

// Tokens is the token pair held by the identity client.
// Empty strings stand for "no token".
type Tokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresAt    time.Time
}

// Claims is the parsed view of an access token.
// Adapters map provider-specific claim shapes into this structure.
type Claims struct {
	Subject           string
	SessionID         string
	PreferredUsername string
	Email             string
	GivenName         string
	FamilyName        string
	RealmRoles        []string
	ClientRoles       []string
	// RoleAttributes is nil when the token carries no role_attributes claim.
	RoleAttributes map[string]any
	ExpiresAt      time.Time
}

// Roles returns realm roles followed by client roles, de-duplicated in first-seen order.
func (c Claims) Roles() []string {
	if len(c.RealmRoles) == 0 && len(c.ClientRoles) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(c.RealmRoles)+len(c.ClientRoles))
	out := make([]string, 0, len(c.RealmRoles)+len(c.ClientRoles))
	for _, r := range slices.Concat(c.RealmRoles, c.ClientRoles) {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// Access is the permission set derived from claims.
type Access struct {
	// Roles is the normalized list of every role the caller holds.
	Roles []string
	// CustomRoles is the subset of Roles that may carry module attributes.
	CustomRoles []string
	// RoleAttributes maps "realm:<role>" to the raw role_attributes claim.
	RoleAttributes map[string]map[string]any
	// Permissions maps module name to whether it is granted.
	Permissions map[string]bool
	// SuperRole is true when the caller holds the configured super role.
	SuperRole bool
}

// Clone returns a deep-enough copy that callers may mutate freely.
func (a Access) Clone() Access {
	out := Access{
		Roles:       slices.Clone(a.Roles),
		CustomRoles: slices.Clone(a.CustomRoles),
		Permissions: maps.Clone(a.Permissions),
		SuperRole:   a.SuperRole,
	}
	if a.RoleAttributes != nil {
		out.RoleAttributes = make(map[string]map[string]any, len(a.RoleAttributes))
		for k, v := range a.RoleAttributes {
			out.RoleAttributes[k] = v
		}
	}
	return out
}

// Allows reports whether module is granted. Super-role holders are granted everything.
func (a Access) Allows(module string) bool {
	if module == "" {
		return false
	}
	if a.SuperRole {
		return true
	}
	return a.Permissions[module]
}

// Profile is the user profile loaded from the identity provider.
type Profile struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	Enabled   bool     `json:"enabled"`
	Roles     []string `json:"roles"`
}

// LogoutOptions are passed through to the provider's end-session call.
type LogoutOptions struct {
	RedirectURL string
}

// LoginState is the read model a consumer observes.
type LoginState struct {
	Authenticated bool
	Loading       bool
	Error         string
	UserInfo      *Profile
	Token         string
	RefreshToken  string
	Access        Access
}
