package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockline-app/stockline-backend/pkg/types"
)

// PlaceInput is a marketer's customer sale against their active pickup.
type PlaceInput struct {
	MarketerID    uuid.UUID       `json:"-"`
	PickupID      uuid.UUID       `json:"pickup_id" validate:"required"`
	DeviceCount   int             `json:"device_count" validate:"required,gte=1"`
	SaleAmount    decimal.Decimal `json:"sale_amount" validate:"required"`
	CustomerName  string          `json:"customer_name" validate:"required"`
	CustomerPhone string          `json:"customer_phone" validate:"required"`
}

// ConfirmInput identifies the order an admin verifies.
type ConfirmInput struct {
	OrderID uuid.UUID
	Actor   types.Actor
}

// CancelInput identifies the order being withdrawn.
type CancelInput struct {
	OrderID uuid.UUID
	Actor   types.Actor
}
