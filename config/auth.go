package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode selects the identity provider implementation.
type AuthMode string

const (
	// AuthModeOIDC talks to a real OpenID Connect provider.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeDev mints tokens locally (for development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oidc", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oidc, dev)", v)
	}
}

// OIDCConfig contains OpenID Connect provider configuration.
type OIDCConfig struct {
	IssuerURL    string `env:"ISSUER_URL"`
	ClientID     string `env:"CLIENT_ID"     envDefault:"two-shoulder"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	// Grant is refresh_token or client_credentials.
	Grant string `env:"GRANT" envDefault:"refresh_token"`
	// RefreshToken is the bootstrap credential for the refresh_token grant. When
	// empty the session starts unauthenticated.
	RefreshToken          string `env:"REFRESH_TOKEN"`
	PostLogoutRedirectURL string `env:"POST_LOGOUT_REDIRECT_URL"`
}

// Sanitize trims values and normalises the grant name.
func (c *OIDCConfig) Sanitize() {
	c.IssuerURL = strings.TrimSuffix(strings.TrimSpace(c.IssuerURL), "/")
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.Scope = strings.Join(strings.Fields(c.Scope), " ")
	c.Grant = strings.ToLower(strings.TrimSpace(c.Grant))
	if c.Grant == "" {
		c.Grant = "refresh_token"
	}
	c.RefreshToken = strings.TrimSpace(c.RefreshToken)
}

// Scopes returns Scope split on whitespace.
func (c *OIDCConfig) Scopes() []string {
	return strings.Fields(c.Scope)
}

// DevAuthConfig controls the locally minted identity.
// Used when AUTH_MODE=dev for development and testing.
type DevAuthConfig struct {
	UserID    string   `env:"USER_ID"    envDefault:"dev-user"`
	Email     string   `env:"EMAIL"      envDefault:"dev@example.com"`
	FirstName string   `env:"FIRST_NAME" envDefault:"Dev"`
	LastName  string   `env:"LAST_NAME"  envDefault:"User"`
	Roles     []string `env:"ROLES"      envDefault:"operator"        envSeparator:";"`
	// Attributes is the role_attributes claim, e.g. "reports=true;modbus=false".
	Attributes map[string]string `env:"ATTRIBUTES" envSeparator:";" envKeyValSeparator:"="`
	TokenTTL   time.Duration     `env:"TOKEN_TTL"  envDefault:"5m"`
	SigningKey string            `env:"SIGNING_KEY"`
}

// Sanitize drops empty roles and enforces a minimum token lifetime.
func (c *DevAuthConfig) Sanitize() {
	roles := c.Roles[:0]
	for _, r := range c.Roles {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	c.Roles = roles
	if c.TokenTTL < time.Minute {
		c.TokenTTL = time.Minute
	}
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oidc"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// DevAuth configuration (used when Mode=dev).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// Sanitize applies guardrails to the provider sub-configs.
func (c *AuthConfig) Sanitize() {
	c.OIDC.Sanitize()
	c.DevAuth.Sanitize()
}
