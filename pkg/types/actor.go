package types

import (
	"github.com/google/uuid"

	"github.com/stockline-app/stockline-backend/pkg/enums"
)

// Actor is the authenticated caller's identity and role, resolved once at
// the request boundary and passed into every domain operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// IsAdminTier reports whether the actor may perform administrative reviews.
func (a Actor) IsAdminTier() bool {
	switch a.Role {
	case enums.UserRoleAdmin, enums.UserRoleSuperAdmin, enums.UserRoleMasterAdmin:
		return true
	default:
		return false
	}
}
