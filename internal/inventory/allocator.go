package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
)

// Reserve claims qty available units of a product for a pickup, all or
// nothing. Runs inside the caller's transaction: on error the caller rolls
// back and no unit stays half-claimed.
func Reserve(ctx context.Context, tx *gorm.DB, productID, pickupID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	ids, err := claimableUnitIDs(ctx, tx, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "select available units")
	}
	if len(ids) < qty {
		return pkgerrors.New(pkgerrors.CodeResourceExhausted, "insufficient stock").
			WithDetails(map[string]any{"requested": qty, "available": len(ids)})
	}

	res := tx.WithContext(ctx).
		Model(&models.InventoryUnit{}).
		Where("id IN ? AND status = ?", ids, enums.UnitStatusAvailable).
		Updates(map[string]any{
			"status":    enums.UnitStatusReserved,
			"pickup_id": pickupID,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve units")
	}
	if res.RowsAffected != int64(qty) {
		// a concurrent claimant won the race on at least one row
		return pkgerrors.New(pkgerrors.CodeResourceExhausted, "insufficient stock").
			WithDetails(map[string]any{"requested": qty, "claimed": res.RowsAffected})
	}
	return nil
}

// claimableUnitIDs selects candidate unit ids. On Postgres the rows are
// locked with SKIP LOCKED so concurrent allocators never queue on the same
// units; other dialects (sqlite in tests) rely on the guarded update alone.
func claimableUnitIDs(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) ([]uuid.UUID, error) {
	q := tx.WithContext(ctx).
		Model(&models.InventoryUnit{}).
		Where("product_id = ? AND status = ?", productID, enums.UnitStatusAvailable).
		Order("created_at ASC").
		Limit(qty)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}

	var ids []uuid.UUID
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// AssignToOrder stamps qty of a pickup's reserved units with the order id.
// The units stay reserved; only confirmation marks them sold.
func AssignToOrder(ctx context.Context, tx *gorm.DB, pickupID, orderID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "device count must be positive")
	}

	var ids []uuid.UUID
	err := tx.WithContext(ctx).
		Model(&models.InventoryUnit{}).
		Where("pickup_id = ? AND status = ? AND order_id IS NULL", pickupID, enums.UnitStatusReserved).
		Order("created_at ASC").
		Limit(qty).
		Pluck("id", &ids).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "select pickup units")
	}
	if len(ids) < qty {
		return pkgerrors.New(pkgerrors.CodeValidation, "device count exceeds picked-up quantity").
			WithDetails(map[string]any{"requested": qty, "held": len(ids)})
	}

	res := tx.WithContext(ctx).
		Model(&models.InventoryUnit{}).
		Where("id IN ? AND status = ? AND order_id IS NULL", ids, enums.UnitStatusReserved).
		Update("order_id", orderID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "assign units to order")
	}
	if res.RowsAffected != int64(qty) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup stock was claimed concurrently")
	}
	return nil
}

// MarkSold flips an order's reserved units to sold and returns how many rows
// changed. Zero rows is not an error; a retried confirmation finds the units
// already sold.
func MarkSold(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.InventoryUnit{}).
		Where("order_id = ? AND status = ?", orderID, enums.UnitStatusReserved).
		Update("status", enums.UnitStatusSold)
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark units sold")
	}
	return res.RowsAffected, nil
}

// ReleaseOrder detaches units from a canceled order. They remain reserved to
// the pickup so the marketer keeps custody of the stock.
func ReleaseOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	err := tx.WithContext(ctx).
		Model(&models.InventoryUnit{}).
		Where("order_id = ? AND status = ?", orderID, enums.UnitStatusReserved).
		Update("order_id", nil).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release order units")
	}
	return nil
}

// ReleasePickup returns a pickup's reserved units to the shelf and reports
// how many came back. Sold units are untouched.
func ReleasePickup(ctx context.Context, tx *gorm.DB, pickupID uuid.UUID) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.InventoryUnit{}).
		Where("pickup_id = ? AND status = ?", pickupID, enums.UnitStatusReserved).
		Updates(map[string]any{
			"status":    enums.UnitStatusAvailable,
			"pickup_id": nil,
			"order_id":  nil,
		})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release pickup units")
	}
	return res.RowsAffected, nil
}

// Intake creates qty fresh available units for a product.
func Intake(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	units := make([]models.InventoryUnit, qty)
	for i := range units {
		units[i] = models.InventoryUnit{
			ID:        uuid.New(),
			ProductID: productID,
			Status:    enums.UnitStatusAvailable,
		}
	}
	if err := tx.WithContext(ctx).Create(&units).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory units")
	}
	return nil
}

// CountByStatus reports how many units of a product sit in the given status.
func CountByStatus(ctx context.Context, db *gorm.DB, productID uuid.UUID, status enums.UnitStatus) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&models.InventoryUnit{}).
		Where("product_id = ? AND status = ?", productID, status).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count units: %w", err)
	}
	return n, nil
}

// RecordAdjustment appends an inventory log row for reporting.
func RecordAdjustment(ctx context.Context, tx *gorm.DB, log *models.InventoryLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if !log.Reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown inventory log reason")
	}
	if err := tx.WithContext(ctx).Create(log).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record inventory adjustment")
	}
	return nil
}
