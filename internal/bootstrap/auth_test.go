package bootstrap

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/two-shoulder/authsession/config"
	"github.com/two-shoulder/authsession/internal/adapters/devauth"
	"github.com/two-shoulder/authsession/internal/adapters/oidc"
	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
	apperrors "github.com/two-shoulder/authsession/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildIdentityClientFactory(t *testing.T) {
	tests := []struct {
		name    string
		auth    config.AuthConfig
		devMode bool
		wantErr bool
		check   func(t *testing.T, client any)
	}{
		{
			name:    "dev auth mode",
			devMode: true,
			auth: config.AuthConfig{
				Mode: config.AuthModeDev,
				DevAuth: config.DevAuthConfig{
					UserID: "dev",
					Email:  "dev@example.com",
					Roles:  []string{"operator"},
				},
			},
			check: func(t *testing.T, client any) {
				assert.IsType(t, &devauth.Client{}, client)
			},
		},
		{
			name: "oidc mode",
			auth: config.AuthConfig{
				Mode: config.AuthModeOIDC,
				OIDC: config.OIDCConfig{
					IssuerURL: "https://sso.example.com/realms/ops",
					ClientID:  "two-shoulder",
					Grant:     "refresh_token",
				},
			},
			check: func(t *testing.T, client any) {
				assert.IsType(t, &oidc.Client{}, client)
			},
		},
		{
			name:    "oidc without issuer",
			auth:    config.AuthConfig{Mode: config.AuthModeOIDC, OIDC: config.OIDCConfig{ClientID: "x"}},
			wantErr: true,
		},
		{
			name: "oidc with unknown grant",
			auth: config.AuthConfig{
				Mode: config.AuthModeOIDC,
				OIDC: config.OIDCConfig{IssuerURL: "https://sso.example.com", ClientID: "x", Grant: "password"},
			},
			wantErr: true,
		},
		{
			name:    "dev without email",
			devMode: true,
			auth:    config.AuthConfig{Mode: config.AuthModeDev, DevAuth: config.DevAuthConfig{UserID: "dev"}},
			wantErr: true,
		},
		{
			name: "dev auth outside dev mode",
			auth: config.AuthConfig{
				Mode:    config.AuthModeDev,
				DevAuth: config.DevAuthConfig{UserID: "dev", Email: "dev@example.com"},
			},
			wantErr: true,
		},
		{
			name:    "unknown mode",
			auth:    config.AuthConfig{Mode: "saml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory, err := BuildIdentityClientFactory(IdentityConfig{
				Auth:     tt.auth,
				AllowDev: tt.devMode,
				Logger:   discardLogger(),
			})
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, factory)
				return
			}
			require.NoError(t, err)

			first, err := factory()
			require.NoError(t, err)
			second, err := factory()
			require.NoError(t, err)
			assert.NotSame(t, first, second, "factory must build a fresh client")
			tt.check(t, first)
		})
	}
}

func TestBuildIdentityClientFactory_ValidationErrors(t *testing.T) {
	_, err := BuildIdentityClientFactory(IdentityConfig{Auth: config.AuthConfig{Mode: config.AuthModeOIDC}})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "OIDC_ISSUER_URL", appErr.Field)
}

func TestBuildClaimsParser(t *testing.T) {
	_, err := BuildClaimsParser(config.ClaimsConfig{RealmRolesPath: "realm_access.[roles"})
	require.Error(t, err)

	p, err := BuildClaimsParser(config.ClaimsConfig{RealmRolesPath: "groups"})
	require.NoError(t, err)
	c := p.FromMap(map[string]any{"groups": []any{"operator"}})
	assert.Equal(t, []string{"operator"}, c.RealmRoles)
}

func TestBuildResolver(t *testing.T) {
	r := BuildResolver(config.RolesConfig{
		SuperRole:         "root",
		PrivilegedRole:    "ops-admin",
		DefaultRoles:      []string{"everyone"},
		DefaultRolePrefix: "default-roles-",
	})

	access := r.Resolve(domainauth.Claims{}, []string{"root"})
	assert.True(t, access.SuperRole)
	assert.True(t, access.Allows("anything"))

	assert.False(t, r.IsCustomRole("everyone"))
	assert.True(t, r.IsCustomRole("ops-admin"))
}
