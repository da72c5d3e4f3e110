package config

import "time"

const (
	minRefreshInterval = 10 * time.Second
	minValidityFloor   = 5 * time.Second
)

// SessionConfig tunes token refresh and profile loading.
type SessionConfig struct {
	// RefreshInterval is the period of the background token check.
	RefreshInterval time.Duration `env:"SESSION_REFRESH_INTERVAL" envDefault:"5m"`
	// MinValidity is how long a token must remain valid before a check refreshes it.
	MinValidity time.Duration `env:"SESSION_MIN_VALIDITY" envDefault:"30s"`
	// LoadProfile controls whether the user profile is fetched after sign-in.
	LoadProfile bool `env:"SESSION_LOAD_PROFILE" envDefault:"true"`
}

// Sanitize applies lower bounds so a misconfiguration cannot hammer the provider.
func (c *SessionConfig) Sanitize() {
	if c.RefreshInterval < minRefreshInterval {
		c.RefreshInterval = minRefreshInterval
	}
	if c.MinValidity < minValidityFloor {
		c.MinValidity = minValidityFloor
	}
}
