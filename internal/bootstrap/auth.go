package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/two-shoulder/authsession/config"
	"github.com/two-shoulder/authsession/internal/adapters/authroles"
	"github.com/two-shoulder/authsession/internal/adapters/claims"
	"github.com/two-shoulder/authsession/internal/adapters/devauth"
	"github.com/two-shoulder/authsession/internal/adapters/oidc"
	apperrors "github.com/two-shoulder/authsession/internal/errors"
	"github.com/two-shoulder/authsession/internal/ports"
)

// IdentityConfig contains configuration for the identity client factory.
type IdentityConfig struct {
	Auth       config.AuthConfig
	Claims     *claims.Parser
	HTTPClient *http.Client // Optional; used for provider calls in oidc mode
	AllowDev   bool         // dev mode must be enabled for AUTH_MODE=dev
	Logger     *slog.Logger
}

// BuildIdentityClientFactory returns a factory for the configured auth mode. The
// configuration is validated up front by building one client.
func BuildIdentityClientFactory(cfg IdentityConfig) (ports.IdentityClientFactory, error) {
	var factory ports.IdentityClientFactory
	switch cfg.Auth.Mode {
	case config.AuthModeDev:
		if !cfg.AllowDev {
			return nil, apperrors.ValidationField("AUTH_MODE", "AUTH_MODE=dev requires DEV=true")
		}
		factory = devClientFactory(cfg)
	case config.AuthModeOIDC:
		if cfg.Auth.OIDC.IssuerURL == "" {
			return nil, apperrors.ValidationField("OIDC_ISSUER_URL", "AUTH_MODE=oidc requires OIDC_ISSUER_URL")
		}
		factory = oidcClientFactory(cfg)
	default:
		return nil, apperrors.Validation(fmt.Sprintf("unsupported auth mode %q", cfg.Auth.Mode))
	}

	if _, err := factory(); err != nil {
		return nil, fmt.Errorf("build %s identity client: %w", cfg.Auth.Mode, err)
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("identity provider configured", "mode", cfg.Auth.Mode)
	}
	return factory, nil
}

func devClientFactory(cfg IdentityConfig) ports.IdentityClientFactory {
	dev := cfg.Auth.DevAuth
	if cfg.Logger != nil {
		cfg.Logger.Warn("dev auth enabled; tokens are minted locally", "user_id", dev.UserID)
	}
	return func() (ports.IdentityClient, error) {
		return devauth.NewClient(devauth.Config{
			UserID:     dev.UserID,
			Email:      dev.Email,
			FirstName:  dev.FirstName,
			LastName:   dev.LastName,
			Roles:      dev.Roles,
			Attributes: dev.Attributes,
			TokenTTL:   dev.TokenTTL,
			SigningKey: []byte(dev.SigningKey),
			Claims:     cfg.Claims,
		})
	}
}

func oidcClientFactory(cfg IdentityConfig) ports.IdentityClientFactory {
	o := cfg.Auth.OIDC
	return func() (ports.IdentityClient, error) {
		return oidc.NewClient(oidc.ClientConfig{
			IssuerURL:             o.IssuerURL,
			ClientID:              o.ClientID,
			ClientSecret:          o.ClientSecret,
			Scope:                 o.Scope,
			Grant:                 oidc.Grant(o.Grant),
			RefreshToken:          o.RefreshToken,
			PostLogoutRedirectURL: o.PostLogoutRedirectURL,
			Claims:                cfg.Claims,
			HTTPClient:            cfg.HTTPClient,
			Logger:                cfg.Logger,
		})
	}
}

// BuildClaimsParser compiles the configured claim paths.
func BuildClaimsParser(cfg config.ClaimsConfig) (*claims.Parser, error) {
	return claims.NewParser(claims.Paths{
		RealmRoles:  cfg.RealmRolesPath,
		ClientRoles: cfg.ClientRolesPath,
		Attributes:  cfg.AttributesPath,
	})
}

// BuildResolver creates the permission resolver from the role configuration.
func BuildResolver(cfg config.RolesConfig) authroles.AttributeResolver {
	return authroles.AttributeResolver{
		SuperRole:         cfg.SuperRole,
		PrivilegedRole:    cfg.PrivilegedRole,
		DefaultRolePrefix: cfg.DefaultRolePrefix,
		DefaultRoles:      cfg.DefaultRoles,
	}
}
