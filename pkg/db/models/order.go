package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockline-app/stockline-backend/pkg/enums"
)

// Order is a customer sale attached to a pickup. Immutable once confirmed
// except for status.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MarketerID    uuid.UUID         `gorm:"column:marketer_id;type:uuid;not null;index"`
	PickupID      uuid.UUID         `gorm:"column:pickup_id;type:uuid;not null;index"`
	DeviceCount   int               `gorm:"column:device_count;not null"`
	SaleAmount    decimal.Decimal   `gorm:"column:sale_amount;type:numeric(12,2);not null"`
	CustomerName  string            `gorm:"column:customer_name;type:text;not null"`
	CustomerPhone string            `gorm:"column:customer_phone;type:text;not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	ConfirmedAt   *time.Time        `gorm:"column:confirmed_at"`
	CanceledAt    *time.Time        `gorm:"column:canceled_at"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Pickup *Pickup `gorm:"foreignKey:PickupID"`
}
