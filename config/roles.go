package config

import "strings"

// RolesConfig names the roles the permission resolver treats specially.
type RolesConfig struct {
	// SuperRole grants every module, including modules absent from the token.
	SuperRole string `env:"ROLES_SUPER_ROLE" envDefault:"superadmin"`
	// PrivilegedRole grants every module listed in role_attributes.
	PrivilegedRole string `env:"ROLES_PRIVILEGED_ROLE" envDefault:"tsadmin"`
	// DefaultRoles never carry module attributes.
	DefaultRoles      []string `env:"ROLES_DEFAULT_ROLES"       envDefault:"two-shoulder;offline_access;uma_authorization" envSeparator:";"`
	DefaultRolePrefix string   `env:"ROLES_DEFAULT_ROLE_PREFIX" envDefault:"default-roles-"`
}

// Sanitize trims role names.
func (c *RolesConfig) Sanitize() {
	c.SuperRole = strings.TrimSpace(c.SuperRole)
	c.PrivilegedRole = strings.TrimSpace(c.PrivilegedRole)
	c.DefaultRolePrefix = strings.TrimSpace(c.DefaultRolePrefix)
	roles := make([]string, 0, len(c.DefaultRoles))
	for _, r := range c.DefaultRoles {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	c.DefaultRoles = roles
}

// ClaimsConfig holds the JMESPath expressions that locate roles and attributes
// inside the access token.
type ClaimsConfig struct {
	RealmRolesPath  string `env:"CLAIMS_REALM_ROLES_PATH"  envDefault:"realm_access.roles"`
	ClientRolesPath string `env:"CLAIMS_CLIENT_ROLES_PATH" envDefault:"resource_access.*.roles[]"`
	AttributesPath  string `env:"CLAIMS_ATTRIBUTES_PATH"   envDefault:"role_attributes"`
}

// Sanitize trims the expressions. Empty expressions disable that lookup.
func (c *ClaimsConfig) Sanitize() {
	c.RealmRolesPath = strings.TrimSpace(c.RealmRolesPath)
	c.ClientRolesPath = strings.TrimSpace(c.ClientRolesPath)
	c.AttributesPath = strings.TrimSpace(c.AttributesPath)
}
