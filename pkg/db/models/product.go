package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockline-app/stockline-backend/pkg/enums"
)

// Product is a dealer's device listing. Individual physical units live in
// inventory_units; RestockedCount accumulates units returned to the shelf.
type Product struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DealerID       uuid.UUID        `gorm:"column:dealer_id;type:uuid;not null"`
	Name           string           `gorm:"column:name;type:text;not null"`
	DeviceType     enums.DeviceType `gorm:"column:device_type;type:device_type;not null"`
	RestockedCount int              `gorm:"column:restocked_count;not null;default:0"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	Dealer *User `gorm:"foreignKey:DealerID"`
}
