package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockline-app/stockline-backend/pkg/enums"
)

// User is any account on the platform: marketers, dealers and the admin tiers.
// Marketers carry back-references to the admin and super admin above them so
// lifecycle notifications can walk the chain without extra lookups.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullName     string         `gorm:"column:full_name;type:text;not null"`
	Role         enums.UserRole `gorm:"column:role;type:user_role;not null"`
	Location     string         `gorm:"column:location;type:text;not null"`
	Locked       bool           `gorm:"column:locked;not null;default:false"`
	AdminID      *uuid.UUID     `gorm:"column:admin_id;type:uuid"`
	SuperAdminID *uuid.UUID     `gorm:"column:super_admin_id;type:uuid"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
