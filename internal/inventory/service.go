package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Availability is the per-status unit breakdown for one product.
type Availability struct {
	ProductID uuid.UUID `json:"product_id"`
	Available int64     `json:"available"`
	Reserved  int64     `json:"reserved"`
	Sold      int64     `json:"sold"`
}

// Service covers dealer-side stock management.
type Service interface {
	Intake(ctx context.Context, input IntakeInput) error
	Availability(ctx context.Context, productID uuid.UUID) (*Availability, error)
}

// IntakeInput describes a batch of physical devices arriving at a dealer.
type IntakeInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	ActorID   uuid.UUID `json:"-"`
}

type service struct {
	db *gorm.DB
	tx txRunner
}

// NewService builds the inventory service.
func NewService(db *gorm.DB, tx txRunner) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{db: db, tx: tx}, nil
}

func (s *service) Intake(ctx context.Context, input IntakeInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.WithContext(ctx).First(&product, "id = ?", input.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if err := Intake(ctx, tx, product.ID, input.Quantity); err != nil {
			return err
		}
		return RecordAdjustment(ctx, tx, &models.InventoryLog{
			ProductID: product.ID,
			Delta:     input.Quantity,
			Reason:    enums.InventoryLogReasonIntake,
		})
	})
}

func (s *service) Availability(ctx context.Context, productID uuid.UUID) (*Availability, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	out := &Availability{ProductID: productID}
	for _, pair := range []struct {
		status enums.UnitStatus
		dest   *int64
	}{
		{enums.UnitStatusAvailable, &out.Available},
		{enums.UnitStatusReserved, &out.Reserved},
		{enums.UnitStatusSold, &out.Sold},
	} {
		n, err := CountByStatus(ctx, s.db, productID, pair.status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count inventory units")
		}
		*pair.dest = n
	}
	return out, nil
}
