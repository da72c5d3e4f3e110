package authroles

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
)

func TestAttributeResolver_IsCustomRole(t *testing.T) {
	r := NewAttributeResolver()

	tests := []struct {
		role string
		want bool
	}{
		{"default-roles-two-shoulder", false},
		{"offline_access", false},
		{"uma_authorization", false},
		{"two-shoulder", false},
		{"tsadmin", true},
		{"operator", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsCustomRole(tt.role))
		})
	}
}

func TestAttributeResolver_PrivilegedRoleBeatsDefaultRules(t *testing.T) {
	r := AttributeResolver{
		PrivilegedRole:    "default-roles-ops",
		DefaultRolePrefix: DefaultRolePrefix,
		DefaultRoles:      []string{"default-roles-ops"},
	}
	assert.True(t, r.IsCustomRole("default-roles-ops"))
}

func TestAttributeResolver_SuperRoleGrantsEveryModule(t *testing.T) {
	r := NewAttributeResolver()
	claims := domainauth.Claims{RoleAttributes: map[string]any{"admin": false, "reports": "0"}}

	access := r.Resolve(claims, []string{"superadmin"})

	assert.True(t, access.SuperRole)
	assert.Equal(t, map[string]bool{"admin": true, "reports": true}, access.Permissions)
	assert.True(t, access.Allows("not-in-claims"))
}

func TestAttributeResolver_PrivilegedRoleOverride(t *testing.T) {
	r := NewAttributeResolver()
	claims := domainauth.Claims{RoleAttributes: map[string]any{"admin": false, "modbus": "false"}}

	access := r.Resolve(claims, []string{"tsadmin"})

	assert.False(t, access.SuperRole)
	assert.Equal(t, map[string]bool{"admin": true, "modbus": true}, access.Permissions)
	assert.False(t, access.Allows("not-in-claims"))
}

func TestAttributeResolver_CustomRoleDenial(t *testing.T) {
	r := NewAttributeResolver()
	claims := domainauth.Claims{RoleAttributes: map[string]any{"reports": false}}

	access := r.Resolve(claims, []string{"operator", "offline_access"})

	assert.Equal(t, []string{"operator"}, access.CustomRoles)
	assert.Equal(t, map[string]bool{"reports": false}, access.Permissions)
	assert.False(t, access.Allows("reports"))
}

func TestAttributeResolver_OnlyDefaultRolesGrantNothing(t *testing.T) {
	r := NewAttributeResolver()
	claims := domainauth.Claims{RoleAttributes: map[string]any{"reports": true}}

	access := r.Resolve(claims, []string{"default-roles-two-shoulder", "offline_access"})

	assert.Empty(t, access.CustomRoles)
	assert.Empty(t, access.Permissions)
	assert.Empty(t, access.RoleAttributes)
}

func TestAttributeResolver_RoleAttributesShareRawObject(t *testing.T) {
	r := NewAttributeResolver()
	attrs := map[string]any{"reports": "1"}

	access := r.Resolve(domainauth.Claims{RoleAttributes: attrs}, []string{"operator", "auditor"})

	assert.Len(t, access.RoleAttributes, 2)
	assert.Equal(t, attrs, access.RoleAttributes["realm:operator"])
	assert.Equal(t, attrs, access.RoleAttributes["realm:auditor"])
	assert.True(t, access.Permissions["reports"])
}

func TestAttributeResolver_MissingAttributesDegrade(t *testing.T) {
	r := NewAttributeResolver()

	access := r.Resolve(domainauth.Claims{}, []string{"tsadmin", "operator"})

	assert.NotNil(t, access.Permissions)
	assert.Empty(t, access.Permissions)
	assert.Equal(t, []string{"tsadmin", "operator"}, access.Roles)
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"bool true", true, true},
		{"string true", "true", true},
		{"string TRUE", "TRUE", true},
		{"string 1", "1", true},
		{"number 1", float64(1), true},
		{"int 1", 1, true},
		{"json number 1", json.Number("1"), true},
		{"keycloak list", []any{"true"}, true},
		{"string list", []string{"1"}, true},
		{"bool false", false, false},
		{"string false", "false", false},
		{"number 0", float64(0), false},
		{"number 2", float64(2), false},
		{"nil", nil, false},
		{"empty list", []any{}, false},
		{"yes", "yes", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truthy(tt.in))
		})
	}
}
