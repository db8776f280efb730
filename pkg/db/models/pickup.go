package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockline-app/stockline-backend/pkg/enums"
)

// Pickup binds a marketer to a quantity of a dealer's product for a bounded
// window. Rows are never deleted; terminal statuses keep the history.
type Pickup struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MarketerID        uuid.UUID          `gorm:"column:marketer_id;type:uuid;not null;index"`
	ProductID         uuid.UUID          `gorm:"column:product_id;type:uuid;not null"`
	Quantity          int                `gorm:"column:quantity;not null;default:1"`
	Status            enums.PickupStatus `gorm:"column:status;type:pickup_status;not null;default:'pending'"`
	PickedUpAt        time.Time          `gorm:"column:picked_up_at;not null"`
	Deadline          time.Time          `gorm:"column:deadline;not null"`
	TransferTargetID  *uuid.UUID         `gorm:"column:transfer_target_id;type:uuid"`
	TransferReason    *string            `gorm:"column:transfer_reason;type:text"`
	ReturnRequestedAt *time.Time         `gorm:"column:return_requested_at"`
	ReturnedAt        *time.Time         `gorm:"column:returned_at"`
	TransferDecidedAt *time.Time         `gorm:"column:transfer_decided_at"`
	SoldAt            *time.Time         `gorm:"column:sold_at"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Marketer *User    `gorm:"foreignKey:MarketerID"`
	Product  *Product `gorm:"foreignKey:ProductID"`
}
