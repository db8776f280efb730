package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockline-app/stockline-backend/pkg/enums"
)

// AdditionalPickupRequest raises a marketer's allowance from one unit to
// three for a single pickup creation. One row per marketer: a rejected row
// stays until its cooldown elapses, an approved row is deleted on use.
type AdditionalPickupRequest struct {
	ID            uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MarketerID    uuid.UUID                    `gorm:"column:marketer_id;type:uuid;not null;uniqueIndex:allowance_requests_marketer_key"`
	Status        enums.AllowanceRequestStatus `gorm:"column:status;type:allowance_request_status;not null;default:'pending'"`
	CooldownUntil *time.Time                   `gorm:"column:cooldown_until"`
	DecidedBy     *uuid.UUID                   `gorm:"column:decided_by;type:uuid"`
	CreatedAt     time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}
