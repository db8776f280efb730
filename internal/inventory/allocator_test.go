package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	units := `
CREATE TABLE IF NOT EXISTS inventory_units (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'available',
  pickup_id TEXT,
  order_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	logs := `
CREATE TABLE IF NOT EXISTS inventory_logs (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  delta INTEGER NOT NULL,
  reason TEXT NOT NULL,
  pickup_id TEXT,
  order_id TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(units).Error)
	require.NoError(t, db.Exec(logs).Error)
	return db
}

func seedUnits(t *testing.T, db *gorm.DB, productID uuid.UUID, qty int) {
	t.Helper()
	require.NoError(t, Intake(context.Background(), db, productID, qty))
}

func countWhere(t *testing.T, db *gorm.DB, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.InventoryUnit{}).Where(query, args...).Count(&n).Error)
	return n
}

func TestReserveClaimsExactly(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	pickup := uuid.New()
	seedUnits(t, db, product, 5)

	require.NoError(t, Reserve(ctx, db, product, pickup, 3))

	require.EqualValues(t, 3, countWhere(t, db, "pickup_id = ? AND status = ?", pickup, enums.UnitStatusReserved))
	require.EqualValues(t, 2, countWhere(t, db, "product_id = ? AND status = ?", product, enums.UnitStatusAvailable))
}

func TestReserveInsufficientStock(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	seedUnits(t, db, product, 2)

	err := Reserve(ctx, db, product, uuid.New(), 3)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeResourceExhausted, typed.Code())
	require.Equal(t, "insufficient stock", typed.Message())

	// all-or-nothing: nothing was claimed
	require.EqualValues(t, 2, countWhere(t, db, "product_id = ? AND status = ?", product, enums.UnitStatusAvailable))
}

func TestReserveNeverDoubleAllocates(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	seedUnits(t, db, product, 3)

	first := uuid.New()
	second := uuid.New()
	require.NoError(t, Reserve(ctx, db, product, first, 2))

	err := Reserve(ctx, db, product, second, 2)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeResourceExhausted, typed.Code())

	// every reserved unit belongs to exactly one pickup
	require.EqualValues(t, 2, countWhere(t, db, "pickup_id = ?", first))
	require.EqualValues(t, 0, countWhere(t, db, "pickup_id = ?", second))
	require.EqualValues(t, 1, countWhere(t, db, "product_id = ? AND status = ?", product, enums.UnitStatusAvailable))
}

func TestAssignToOrderAndMarkSold(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	pickup := uuid.New()
	order := uuid.New()
	seedUnits(t, db, product, 4)
	require.NoError(t, Reserve(ctx, db, product, pickup, 3))

	require.NoError(t, AssignToOrder(ctx, db, pickup, order, 2))
	require.EqualValues(t, 2, countWhere(t, db, "order_id = ? AND status = ?", order, enums.UnitStatusReserved))

	sold, err := MarkSold(ctx, db, order)
	require.NoError(t, err)
	require.EqualValues(t, 2, sold)

	// retried confirmation finds nothing left to flip
	sold, err = MarkSold(ctx, db, order)
	require.NoError(t, err)
	require.EqualValues(t, 0, sold)

	// the unclaimed third unit stays reserved to the pickup
	require.EqualValues(t, 1, countWhere(t, db, "pickup_id = ? AND status = ? AND order_id IS NULL", pickup, enums.UnitStatusReserved))
}

func TestAssignToOrderRejectsOverclaim(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	pickup := uuid.New()
	seedUnits(t, db, product, 2)
	require.NoError(t, Reserve(ctx, db, product, pickup, 2))

	err := AssignToOrder(ctx, db, pickup, uuid.New(), 3)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestReleaseOrderKeepsUnitsReserved(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	pickup := uuid.New()
	order := uuid.New()
	seedUnits(t, db, product, 2)
	require.NoError(t, Reserve(ctx, db, product, pickup, 2))
	require.NoError(t, AssignToOrder(ctx, db, pickup, order, 2))

	require.NoError(t, ReleaseOrder(ctx, db, order))

	require.EqualValues(t, 0, countWhere(t, db, "order_id = ?", order))
	require.EqualValues(t, 2, countWhere(t, db, "pickup_id = ? AND status = ?", pickup, enums.UnitStatusReserved))
}

func TestReleasePickupReturnsOnlyReserved(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	pickup := uuid.New()
	order := uuid.New()
	seedUnits(t, db, product, 3)
	require.NoError(t, Reserve(ctx, db, product, pickup, 3))
	require.NoError(t, AssignToOrder(ctx, db, pickup, order, 1))
	_, err := MarkSold(ctx, db, order)
	require.NoError(t, err)

	released, err := ReleasePickup(ctx, db, pickup)
	require.NoError(t, err)
	require.EqualValues(t, 2, released)

	require.EqualValues(t, 2, countWhere(t, db, "product_id = ? AND status = ?", product, enums.UnitStatusAvailable))
	require.EqualValues(t, 1, countWhere(t, db, "pickup_id = ? AND status = ?", pickup, enums.UnitStatusSold))
}

func TestIntakeRejectsNonPositiveQty(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	err := Intake(context.Background(), db, uuid.New(), 0)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
