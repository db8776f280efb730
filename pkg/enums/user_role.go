package enums

import "fmt"

// UserRole maps to the user_role enum in Postgres.
type UserRole string

const (
	UserRoleMarketer    UserRole = "marketer"
	UserRoleAdmin       UserRole = "admin"
	UserRoleSuperAdmin  UserRole = "super_admin"
	UserRoleMasterAdmin UserRole = "master_admin"
	UserRoleDealer      UserRole = "dealer"
)

var validUserRoles = []UserRole{
	UserRoleMarketer,
	UserRoleAdmin,
	UserRoleSuperAdmin,
	UserRoleMasterAdmin,
	UserRoleDealer,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanReceiveTransfer reports whether the role may be the target of a stock transfer.
func (r UserRole) CanReceiveTransfer() bool {
	switch r {
	case UserRoleMarketer, UserRoleAdmin, UserRoleSuperAdmin:
		return true
	default:
		return false
	}
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
