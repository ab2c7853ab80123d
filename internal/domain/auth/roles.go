package auth

import (
	"fmt"
	"strings"
)

// Role is one of RoleAdmin, RoleHR or RoleEmployee. The zero value is not a
// valid role.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleHR       Role = "HR"
	RoleEmployee Role = "Employee"
)

func Roles() []Role {
	return []Role{RoleAdmin, RoleHR, RoleEmployee}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleEmployee:
		return true
	}
	return false
}

// ParseRole matches case-insensitively and returns the canonical spelling.
func ParseRole(value string) (Role, error) {
	normalized := strings.TrimSpace(value)
	for _, role := range Roles() {
		if strings.EqualFold(normalized, string(role)) {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", value)
}
