// Package claims decodes identity-provider access tokens into domain claims.
package claims

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
)

// Paths are JMESPath expressions locating role and attribute data inside the claims object.
type Paths struct {
	RealmRoles  string
	ClientRoles string
	Attributes  string
}

// DefaultPaths matches the Keycloak token layout.
func DefaultPaths() Paths {
	return Paths{
		RealmRoles:  "realm_access.roles",
		ClientRoles: "resource_access.*.roles[]",
		Attributes:  "role_attributes",
	}
}

// Parser extracts domain claims from raw JWTs. Signatures are not verified here;
// the provider adapter and the backend own verification.
type Parser struct {
	paths Paths
	jwt   *jwt.Parser
}

// NewParser validates the expressions and returns a Parser. Empty paths are skipped.
func NewParser(paths Paths) (*Parser, error) {
	for name, expr := range map[string]string{
		"realm roles":  paths.RealmRoles,
		"client roles": paths.ClientRoles,
		"attributes":   paths.Attributes,
	} {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile %s path %q: %w", name, expr, err)
		}
	}
	return &Parser{paths: paths, jwt: jwt.NewParser()}, nil
}

// MustNewParser is NewParser for static expressions; it panics on error.
func MustNewParser(paths Paths) *Parser {
	p, err := NewParser(paths)
	if err != nil {
		panic(err) //nolint:forbidigo // static expressions are validated at startup
	}
	return p
}

// Parse decodes rawToken and maps its payload into domain claims.
func (p *Parser) Parse(rawToken string) (domainauth.Claims, error) {
	if rawToken == "" {
		return domainauth.Claims{}, errors.New("empty token")
	}
	mc := jwt.MapClaims{}
	if _, _, err := p.jwt.ParseUnverified(rawToken, mc); err != nil {
		return domainauth.Claims{}, fmt.Errorf("parse token: %w", err)
	}
	return p.FromMap(mc), nil
}

// FromMap maps an already-decoded claims object. Unexpected shapes degrade to empty values.
func (p *Parser) FromMap(m map[string]any) domainauth.Claims {
	mc := jwt.MapClaims(m)
	c := domainauth.Claims{
		Subject:           stringClaim(m, "sub"),
		SessionID:         stringClaim(m, "sid"),
		PreferredUsername: stringClaim(m, "preferred_username"),
		Email:             stringClaim(m, "email"),
		GivenName:         stringClaim(m, "given_name"),
		FamilyName:        stringClaim(m, "family_name"),
		RealmRoles:        toStrings(p.search(p.paths.RealmRoles, m)),
		ClientRoles:       toStrings(p.search(p.paths.ClientRoles, m)),
	}
	if attrs, ok := p.search(p.paths.Attributes, m).(map[string]any); ok {
		c.RoleAttributes = attrs
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c
}

// ExpiresAt returns the exp claim of rawToken, or the zero time when absent or unparsable.
func (p *Parser) ExpiresAt(rawToken string) time.Time {
	c, err := p.Parse(rawToken)
	if err != nil {
		return time.Time{}
	}
	return c.ExpiresAt
}

func (p *Parser) search(expr string, data map[string]any) any {
	if strings.TrimSpace(expr) == "" || data == nil {
		return nil
	}
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return nil
	}
	return v
}

func stringClaim(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// toStrings accepts a JSON array or a single string.
func toStrings(v any) []string {
	switch vv := v.(type) {
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vv
	case string:
		if vv == "" {
			return nil
		}
		return []string{vv}
	default:
		return nil
	}
}
