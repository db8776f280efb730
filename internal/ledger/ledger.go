package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
)

// commissionRates is the per-unit credit by device type and beneficiary
// role. Figures are in the platform currency.
var commissionRates = map[enums.DeviceType]map[enums.UserRole]decimal.Decimal{
	enums.DeviceTypeFeaturePhone: {
		enums.UserRoleMarketer:   decimal.NewFromInt(300),
		enums.UserRoleAdmin:      decimal.NewFromInt(100),
		enums.UserRoleSuperAdmin: decimal.NewFromInt(50),
	},
	enums.DeviceTypeSmartphone: {
		enums.UserRoleMarketer:   decimal.NewFromInt(1000),
		enums.UserRoleAdmin:      decimal.NewFromInt(300),
		enums.UserRoleSuperAdmin: decimal.NewFromInt(150),
	},
	enums.DeviceTypeTablet: {
		enums.UserRoleMarketer:   decimal.NewFromInt(800),
		enums.UserRoleAdmin:      decimal.NewFromInt(250),
		enums.UserRoleSuperAdmin: decimal.NewFromInt(100),
	},
	enums.DeviceTypeAccessory: {
		enums.UserRoleMarketer:   decimal.NewFromInt(100),
		enums.UserRoleAdmin:      decimal.NewFromInt(30),
		enums.UserRoleSuperAdmin: decimal.NewFromInt(15),
	},
}

// CreditInput identifies the confirmed order and everyone it pays out to.
type CreditInput struct {
	OrderID      uuid.UUID
	MarketerID   uuid.UUID
	AdminID      *uuid.UUID
	SuperAdminID *uuid.UUID
	DeviceType   enums.DeviceType
	Quantity     int
}

// Ledger credits commission wallets when an order is finally confirmed.
type Ledger interface {
	// Credit writes one commission event per beneficiary inside the
	// caller's transaction. Safe to call more than once for the same
	// order: the (order, beneficiary) pair is unique and replays insert
	// nothing.
	Credit(ctx context.Context, tx *gorm.DB, input CreditInput) error
	HasCredit(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type ledger struct {
	db *gorm.DB
}

// New builds the commission ledger.
func New(db *gorm.DB) (Ledger, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db handle required")
	}
	return &ledger{db: db}, nil
}

func (l *ledger) Credit(ctx context.Context, tx *gorm.DB, input CreditInput) error {
	if input.OrderID == uuid.Nil || input.MarketerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order and marketer ids required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	rates, ok := commissionRates[input.DeviceType]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "no commission rate for device type")
	}

	qty := decimal.NewFromInt(int64(input.Quantity))
	events := []models.CommissionEvent{{
		ID:            uuid.New(),
		OrderID:       input.OrderID,
		MarketerID:    input.MarketerID,
		BeneficiaryID: input.MarketerID,
		Role:          enums.UserRoleMarketer,
		DeviceType:    input.DeviceType,
		Quantity:      input.Quantity,
		Amount:        rates[enums.UserRoleMarketer].Mul(qty),
	}}
	if input.AdminID != nil && *input.AdminID != uuid.Nil {
		events = append(events, models.CommissionEvent{
			ID:            uuid.New(),
			OrderID:       input.OrderID,
			MarketerID:    input.MarketerID,
			BeneficiaryID: *input.AdminID,
			Role:          enums.UserRoleAdmin,
			DeviceType:    input.DeviceType,
			Quantity:      input.Quantity,
			Amount:        rates[enums.UserRoleAdmin].Mul(qty),
		})
	}
	if input.SuperAdminID != nil && *input.SuperAdminID != uuid.Nil {
		events = append(events, models.CommissionEvent{
			ID:            uuid.New(),
			OrderID:       input.OrderID,
			MarketerID:    input.MarketerID,
			BeneficiaryID: *input.SuperAdminID,
			Role:          enums.UserRoleSuperAdmin,
			DeviceType:    input.DeviceType,
			Quantity:      input.Quantity,
			Amount:        rates[enums.UserRoleSuperAdmin].Mul(qty),
		})
	}

	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "beneficiary_id"}},
			DoNothing: true,
		}).
		Create(&events).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit commission")
	}
	return nil
}

func (l *ledger) HasCredit(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var n int64
	err := l.db.WithContext(ctx).
		Model(&models.CommissionEvent{}).
		Where("order_id = ?", orderID).
		Count(&n).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count commission events")
	}
	return n > 0, nil
}
