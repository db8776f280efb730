package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockline-app/stockline-backend/pkg/enums"
)

// InventoryUnit is one physical, individually trackable device. PickupID is
// set while the unit is reserved (or was sold) through a pickup; OrderID is
// set once an order claims the unit.
type InventoryUnit struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	Status    enums.UnitStatus `gorm:"column:status;type:unit_status;not null;default:'available'"`
	PickupID  *uuid.UUID       `gorm:"column:pickup_id;type:uuid;index"`
	OrderID   *uuid.UUID       `gorm:"column:order_id;type:uuid"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
