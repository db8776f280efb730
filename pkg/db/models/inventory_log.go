package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockline-app/stockline-backend/pkg/enums"
)

// InventoryLog records every stock count adjustment per product so reporting
// can reconcile available counts against unit rows.
type InventoryLog struct {
	ID        uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID                `gorm:"column:product_id;type:uuid;not null;index"`
	Delta     int                      `gorm:"column:delta;not null"`
	Reason    enums.InventoryLogReason `gorm:"column:reason;type:inventory_log_reason;not null"`
	PickupID  *uuid.UUID               `gorm:"column:pickup_id;type:uuid"`
	OrderID   *uuid.UUID               `gorm:"column:order_id;type:uuid"`
	CreatedAt time.Time                `gorm:"column:created_at;autoCreateTime"`
}
