package auth

import "strings"

// Role is the closed set of back-office roles. Anything the API sends outside
// this set parses to RoleUnknown, which grants no capability.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERADOR"
	RoleUnknown  Role = ""
)

// ParseRole normalizes a wire value into a Role.
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return RoleAdmin
	case "OPERADOR", "OPERATOR":
		return RoleOperator
	default:
		return RoleUnknown
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOperator
}

// IsAdmin reports whether r is the administrator role.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// IsOperatorOrAbove reports whether r may use the back-office at all.
func (r Role) IsOperatorOrAbove() bool {
	switch r {
	case RoleAdmin, RoleOperator:
		return true
	default:
		return false
	}
}

// UnmarshalText lets JSON/YAML decoding go through ParseRole.
func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}
