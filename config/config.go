package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: identity provider configuration
//   - roles.go: permission resolution and claim paths
//   - session.go: token refresh tuning
//   - redis.go: remote logout channel
//   - observability.go: metrics and logging
type AppConfig struct {
	// IsDev enables development-only features such as AUTH_MODE=dev.
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth    AuthConfig
	Roles   RolesConfig
	Claims  ClaimsConfig
	Session SessionConfig

	// Redis configuration for back-channel logout.
	Redis RedisConfig `envPrefix:"REDIS_"`
	// LogoutChannel is the pub/sub channel logout notices arrive on.
	LogoutChannel string `env:"LOGOUT_CHANNEL" envDefault:"authsession:logout"`

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.Roles.Sanitize()
	c.Claims.Sanitize()
	c.Session.Sanitize()
	c.Redis.Sanitize()
	c.Observability.Sanitize()
	c.LogoutChannel = strings.TrimSpace(c.LogoutChannel)

	c.detectDevMode()
}

// detectDevMode falls back to APP_ENV when DEV is unset.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}
