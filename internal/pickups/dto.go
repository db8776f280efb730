package pickups

import (
	"github.com/google/uuid"

	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	"github.com/stockline-app/stockline-backend/pkg/types"
)

// CreateInput describes a marketer's pickup request.
type CreateInput struct {
	MarketerID uuid.UUID `json:"-"`
	ProductID  uuid.UUID `json:"product_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"omitempty,gte=1"`
}

// ReturnInput identifies the pickup a marketer wants to hand back.
type ReturnInput struct {
	PickupID uuid.UUID `json:"-"`
	Actor    types.Actor
}

// ListInput filters the pickup listing for a caller.
type ListInput struct {
	Actor  types.Actor
	Status *enums.PickupStatus
	Limit  int
	Cursor string
}

// ListResult wraps a pickup page and the cursor for the next one.
type ListResult struct {
	Items  []models.Pickup `json:"items"`
	Cursor string          `json:"cursor"`
}
