package authroles

import (
	"slices"
	"strconv"
	"strings"

	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
)

const (
	// DefaultRolePrefix marks the synthetic realm default role (e.g. "default-roles-myrealm").
	DefaultRolePrefix = "default-roles-"
	// DefaultPrivilegedRole unlocks every module without being the super role.
	DefaultPrivilegedRole = "tsadmin"
	// DefaultSuperRole unlocks every module, including ones absent from claims.
	DefaultSuperRole = "superadmin"
)

// DefaultNonPrivilegedRoles are realm roles every user holds; they never carry module attributes.
func DefaultNonPrivilegedRoles() []string {
	return []string{"two-shoulder", "offline_access", "uma_authorization"}
}

// AttributeResolver derives module permissions from the role_attributes claim.
type AttributeResolver struct {
	SuperRole         string
	PrivilegedRole    string
	DefaultRolePrefix string
	DefaultRoles      []string
}

// NewAttributeResolver returns a resolver populated with the default role names.
func NewAttributeResolver() AttributeResolver {
	return AttributeResolver{
		SuperRole:         DefaultSuperRole,
		PrivilegedRole:    DefaultPrivilegedRole,
		DefaultRolePrefix: DefaultRolePrefix,
		DefaultRoles:      DefaultNonPrivilegedRoles(),
	}
}

// IsCustomRole reports whether a role may carry module attributes.
// The privileged role is always custom, even if it also matches a default-role rule.
func (r AttributeResolver) IsCustomRole(role string) bool {
	if role == "" {
		return false
	}
	if r.PrivilegedRole != "" && role == r.PrivilegedRole {
		return true
	}
	if r.DefaultRolePrefix != "" && strings.HasPrefix(role, r.DefaultRolePrefix) {
		return false
	}
	return !slices.Contains(r.DefaultRoles, role)
}

// Resolve builds the permission map for userRoles.
//
// Holders of the super or privileged role get every module present in role_attributes.
// Everyone else gets a module only through a custom role whose attribute value is truthy.
// When several custom roles are held the last one processed decides each module; values
// are not OR-merged.
func (r AttributeResolver) Resolve(claims domainauth.Claims, userRoles []string) domainauth.Access {
	access := domainauth.Access{
		Roles:          slices.Clone(userRoles),
		RoleAttributes: map[string]map[string]any{},
		Permissions:    map[string]bool{},
	}

	var privileged bool
	for _, role := range userRoles {
		if r.SuperRole != "" && role == r.SuperRole {
			access.SuperRole = true
		}
		if r.PrivilegedRole != "" && role == r.PrivilegedRole {
			privileged = true
		}
		if r.IsCustomRole(role) {
			access.CustomRoles = append(access.CustomRoles, role)
		}
	}

	attrs := claims.RoleAttributes
	for _, role := range access.CustomRoles {
		if attrs != nil {
			access.RoleAttributes["realm:"+role] = attrs
		}
	}

	if attrs == nil {
		return access
	}

	if access.SuperRole || privileged {
		for module := range attrs {
			access.Permissions[module] = true
		}
		return access
	}

	for range access.CustomRoles {
		for module, value := range attrs {
			access.Permissions[module] = Truthy(value)
		}
	}
	return access
}

// Truthy coerces a role attribute value. Accepted true encodings are the boolean true,
// the strings "true" and "1" (case-insensitive, surrounding space ignored), and the
// number 1. Single-element lists, the shape Keycloak stores attributes in, are unwrapped.
func Truthy(v any) bool {
	switch vv := v.(type) {
	case bool:
		return vv
	case string:
		s := strings.ToLower(strings.TrimSpace(vv))
		return s == "true" || s == "1"
	case float64:
		return vv == 1
	case float32:
		return vv == 1
	case int:
		return vv == 1
	case int64:
		return vv == 1
	case int32:
		return vv == 1
	case []any:
		if len(vv) == 0 {
			return false
		}
		return Truthy(vv[0])
	case []string:
		if len(vv) == 0 {
			return false
		}
		return Truthy(vv[0])
	case interface{ String() string }:
		// json.Number and similar
		n, err := strconv.ParseFloat(vv.String(), 64)
		return err == nil && n == 1
	default:
		return false
	}
}
