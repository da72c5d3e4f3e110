package config

import (
	"log/slog"
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func parseEnv(t *testing.T, vars map[string]string) AppConfig {
	t.Helper()
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()
	return cfg
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := parseEnv(t, map[string]string{})

	if cfg.Auth.Mode != AuthModeOIDC {
		t.Errorf("expected default auth mode oidc, got %q", cfg.Auth.Mode)
	}
	if cfg.Auth.OIDC.Grant != "refresh_token" {
		t.Errorf("expected default grant refresh_token, got %q", cfg.Auth.OIDC.Grant)
	}
	if cfg.Roles.SuperRole != "superadmin" || cfg.Roles.PrivilegedRole != "tsadmin" {
		t.Errorf("unexpected role defaults: %+v", cfg.Roles)
	}
	wantDefaults := []string{"two-shoulder", "offline_access", "uma_authorization"}
	if !reflect.DeepEqual(cfg.Roles.DefaultRoles, wantDefaults) {
		t.Errorf("expected default roles %v, got %v", wantDefaults, cfg.Roles.DefaultRoles)
	}
	if cfg.Claims.RealmRolesPath != "realm_access.roles" {
		t.Errorf("unexpected realm roles path %q", cfg.Claims.RealmRolesPath)
	}
	if cfg.Session.RefreshInterval != 5*time.Minute || cfg.Session.MinValidity != 30*time.Second {
		t.Errorf("unexpected session defaults: %+v", cfg.Session)
	}
	if !cfg.Session.LoadProfile {
		t.Error("expected profile loading on by default")
	}
	if cfg.Redis.Enabled {
		t.Error("expected redis disabled by default")
	}
	if cfg.LogoutChannel != "authsession:logout" {
		t.Errorf("unexpected logout channel %q", cfg.LogoutChannel)
	}
	if cfg.Observability.SlogLevel() != slog.LevelInfo {
		t.Errorf("expected info log level, got %v", cfg.Observability.SlogLevel())
	}
}

func TestAppConfig_DevAuthFromEnv(t *testing.T) {
	cfg := parseEnv(t, map[string]string{
		"AUTH_MODE":                    "DEV",
		"DEV_AUTH_ROLES":               "operator; ;auditor",
		"DEV_AUTH_ATTRIBUTES":          "reports=true;modbus=false",
		"DEV_AUTH_TOKEN_TTL":           "10s",
		"SESSION_MIN_VALIDITY":         "1s",
		"SESSION_LOAD_PROFILE":         "false",
		"OBSERVABILITY_METRICS_PREFIX": " ",
		"LOG_LEVEL":                    "DEBUG",
	})

	if cfg.Auth.Mode != AuthModeDev {
		t.Fatalf("expected dev mode, got %q", cfg.Auth.Mode)
	}
	if !reflect.DeepEqual(cfg.Auth.DevAuth.Roles, []string{"operator", "auditor"}) {
		t.Errorf("unexpected roles %v", cfg.Auth.DevAuth.Roles)
	}
	wantAttrs := map[string]string{"reports": "true", "modbus": "false"}
	if !reflect.DeepEqual(cfg.Auth.DevAuth.Attributes, wantAttrs) {
		t.Errorf("expected attributes %v, got %v", wantAttrs, cfg.Auth.DevAuth.Attributes)
	}
	if cfg.Auth.DevAuth.TokenTTL != time.Minute {
		t.Errorf("expected token TTL clamped to 1m, got %v", cfg.Auth.DevAuth.TokenTTL)
	}
	if cfg.Session.MinValidity != minValidityFloor {
		t.Errorf("expected min validity clamped, got %v", cfg.Session.MinValidity)
	}
	if cfg.Session.LoadProfile {
		t.Error("expected profile loading disabled")
	}
	if cfg.Observability.Metrics.Prefix != defaultMetricsPrefix {
		t.Errorf("expected metrics prefix default, got %q", cfg.Observability.Metrics.Prefix)
	}
	if cfg.Observability.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug log level, got %v", cfg.Observability.SlogLevel())
	}
}

func TestAuthMode_UnmarshalText(t *testing.T) {
	tests := []struct {
		input   string
		want    AuthMode
		wantErr bool
	}{
		{input: "oidc", want: AuthModeOIDC},
		{input: " Dev ", want: AuthModeDev},
		{input: "oauth", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		var m AuthMode
		err := m.UnmarshalText([]byte(tt.input))
		if tt.wantErr {
			if err == nil {
				t.Errorf("UnmarshalText(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("UnmarshalText(%q): unexpected error %v", tt.input, err)
		}
		if m != tt.want {
			t.Errorf("UnmarshalText(%q) = %q, want %q", tt.input, m, tt.want)
		}
	}
}

func TestAppConfig_InvalidAuthMode(t *testing.T) {
	var cfg AppConfig
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{"AUTH_MODE": "mock"}})
	if err == nil {
		t.Fatal("expected parse error for unknown auth mode")
	}
}

func TestOIDCConfig_Sanitize(t *testing.T) {
	cfg := OIDCConfig{
		IssuerURL:    " https://sso.example.com/realms/ops/ ",
		Scope:        "openid   profile\temail",
		Grant:        " Client_Credentials ",
		RefreshToken: "  ",
	}
	cfg.Sanitize()

	if cfg.IssuerURL != "https://sso.example.com/realms/ops" {
		t.Errorf("unexpected issuer %q", cfg.IssuerURL)
	}
	if !reflect.DeepEqual(cfg.Scopes(), []string{"openid", "profile", "email"}) {
		t.Errorf("unexpected scopes %v", cfg.Scopes())
	}
	if cfg.Grant != "client_credentials" {
		t.Errorf("unexpected grant %q", cfg.Grant)
	}
	if cfg.RefreshToken != "" {
		t.Errorf("expected blank refresh token to be trimmed, got %q", cfg.RefreshToken)
	}
}

func TestSessionConfig_Sanitize(t *testing.T) {
	cfg := SessionConfig{RefreshInterval: time.Second, MinValidity: 0}
	cfg.Sanitize()

	if cfg.RefreshInterval != minRefreshInterval {
		t.Errorf("expected refresh interval clamped, got %v", cfg.RefreshInterval)
	}
	if cfg.MinValidity != minValidityFloor {
		t.Errorf("expected min validity clamped, got %v", cfg.MinValidity)
	}
}

func TestRedisConfig_Sanitize(t *testing.T) {
	cfg := RedisConfig{
		URI:           " redis://localhost:6379/0 ",
		ClusterNodes:  []string{" a:1 ", "", "b:2"},
		SentinelNodes: []string{" "},
	}
	cfg.Sanitize()

	if cfg.URI != "redis://localhost:6379/0" {
		t.Errorf("unexpected URI %q", cfg.URI)
	}
	if !reflect.DeepEqual(cfg.ClusterNodes, []string{"a:1", "b:2"}) {
		t.Errorf("unexpected cluster nodes %v", cfg.ClusterNodes)
	}
	if len(cfg.SentinelNodes) != 0 {
		t.Errorf("expected sentinel nodes to be empty, got %v", cfg.SentinelNodes)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestAppConfig_DetectDevModeFromAppEnv(t *testing.T) {
	t.Setenv("APP_ENV", " Development ")
	cfg := AppConfig{}
	cfg.Sanitize()
	if !cfg.IsDev {
		t.Fatal("expected APP_ENV=development to enable dev mode")
	}

	t.Setenv("APP_ENV", "production")
	cfg = AppConfig{}
	cfg.Sanitize()
	if cfg.IsDev {
		t.Fatal("expected APP_ENV=production to leave dev mode off")
	}
}
