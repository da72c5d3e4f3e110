// Package testutil provides testing utilities and helpers for the session packages.
package testutil

import (
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestSigningKey signs tokens minted by TokenBuilder.
var TestSigningKey = []byte("test-key")

// TokenBuilder provides a fluent interface for minting Keycloak-shaped access tokens.
type TokenBuilder struct {
	claims jwt.MapClaims
}

// NewToken creates a TokenBuilder for subject with a five minute lifetime.
func NewToken(subject string) *TokenBuilder {
	return &TokenBuilder{
		claims: jwt.MapClaims{
			"sub": subject,
			"exp": time.Now().Add(5 * time.Minute).Unix(),
		},
	}
}

// WithSessionID sets the sid claim.
func (b *TokenBuilder) WithSessionID(sid string) *TokenBuilder {
	b.claims["sid"] = sid
	return b
}

// WithUser sets the username, email and name claims.
func (b *TokenBuilder) WithUser(username, email, given, family string) *TokenBuilder {
	b.claims["preferred_username"] = username
	b.claims["email"] = email
	b.claims["given_name"] = given
	b.claims["family_name"] = family
	return b
}

// WithExpiry sets the exp claim.
func (b *TokenBuilder) WithExpiry(exp time.Time) *TokenBuilder {
	b.claims["exp"] = exp.Unix()
	return b
}

// WithRealmRoles sets realm_access.roles.
func (b *TokenBuilder) WithRealmRoles(roles ...string) *TokenBuilder {
	b.claims["realm_access"] = map[string]any{"roles": toAny(roles)}
	return b
}

// WithClientRoles adds roles under resource_access.<client>.roles.
func (b *TokenBuilder) WithClientRoles(client string, roles ...string) *TokenBuilder {
	ra, _ := b.claims["resource_access"].(map[string]any)
	if ra == nil {
		ra = map[string]any{}
	}
	ra[client] = map[string]any{"roles": toAny(roles)}
	b.claims["resource_access"] = ra
	return b
}

// WithAttributes sets the role_attributes claim.
func (b *TokenBuilder) WithAttributes(attrs map[string]any) *TokenBuilder {
	b.claims["role_attributes"] = maps.Clone(attrs)
	return b
}

// WithClaim sets an arbitrary claim.
func (b *TokenBuilder) WithClaim(name string, value any) *TokenBuilder {
	b.claims[name] = value
	return b
}

// Claims returns a copy of the claims built so far.
func (b *TokenBuilder) Claims() jwt.MapClaims {
	return maps.Clone(b.claims)
}

// Sign returns the HS256-signed token.
func (b *TokenBuilder) Sign(t TestingTB) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, b.claims).SignedString(TestSigningKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
