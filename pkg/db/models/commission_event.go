package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockline-app/stockline-backend/pkg/enums"
)

// CommissionEvent records an immutable wallet credit produced by an order
// confirmation. The (order_id, beneficiary_id) pair is unique so retried
// confirmations never double-credit.
type CommissionEvent struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID        `gorm:"column:order_id;type:uuid;not null;uniqueIndex:commission_events_order_beneficiary_key"`
	MarketerID    uuid.UUID        `gorm:"column:marketer_id;type:uuid;not null"`
	BeneficiaryID uuid.UUID        `gorm:"column:beneficiary_id;type:uuid;not null;uniqueIndex:commission_events_order_beneficiary_key"`
	Role          enums.UserRole   `gorm:"column:role;type:user_role;not null"`
	DeviceType    enums.DeviceType `gorm:"column:device_type;type:device_type;not null"`
	Quantity      int              `gorm:"column:quantity;not null"`
	Amount        decimal.Decimal  `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
}
