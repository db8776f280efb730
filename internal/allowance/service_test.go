package allowance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/pkg/config"
	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
)

type dbRunner struct {
	db *gorm.DB
}

func (r dbRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func setupAllowanceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:allowance_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS additional_pickup_requests (
  id TEXT PRIMARY KEY,
  marketer_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  decided_by TEXT,
  cooldown_until DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func newAllowanceService(t *testing.T, db *gorm.DB, cfg config.PickupConfig) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), dbRunner{db: db}, cfg)
	require.NoError(t, err)
	return svc
}

func TestAllowanceRequestLifecycle(t *testing.T) {
	t.Parallel()

	db := setupAllowanceTestDB(t)
	ctx := context.Background()
	svc := newAllowanceService(t, db, config.PickupConfig{})
	marketer := uuid.New()
	admin := uuid.New()

	request, err := svc.Request(ctx, marketer)
	require.NoError(t, err)
	require.Equal(t, enums.AllowanceRequestStatusPending, request.Status)

	// limit stays at the default until the request is approved
	limit, approval, err := svc.AllowanceFor(ctx, db, marketer)
	require.NoError(t, err)
	require.Equal(t, 1, limit)
	require.Nil(t, approval)

	// duplicate request while pending
	_, err = svc.Request(ctx, marketer)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	require.Contains(t, typed.Message(), "awaiting review")

	require.NoError(t, svc.Review(ctx, request.ID, admin, DecisionApprove))

	limit, approval, err = svc.AllowanceFor(ctx, db, marketer)
	require.NoError(t, err)
	require.Equal(t, 3, limit)
	require.NotNil(t, approval)
	require.Equal(t, request.ID, approval.ID)

	// requesting again while an approval is banked
	_, err = svc.Request(ctx, marketer)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Contains(t, typed.Message(), "already available")

	// consuming the approval drops the limit back to default
	require.NoError(t, svc.Consume(ctx, db, approval.ID))

	limit, approval, err = svc.AllowanceFor(ctx, db, marketer)
	require.NoError(t, err)
	require.Equal(t, 1, limit)
	require.Nil(t, approval)
}

func TestAllowanceRejectCooldown(t *testing.T) {
	t.Parallel()

	db := setupAllowanceTestDB(t)
	ctx := context.Background()
	svc := newAllowanceService(t, db, config.PickupConfig{})
	marketer := uuid.New()
	admin := uuid.New()

	request, err := svc.Request(ctx, marketer)
	require.NoError(t, err)
	require.NoError(t, svc.Review(ctx, request.ID, admin, DecisionReject))

	var reloaded models.AdditionalPickupRequest
	require.NoError(t, db.First(&reloaded, "id = ?", request.ID).Error)
	require.Equal(t, enums.AllowanceRequestStatusRejected, reloaded.Status)
	require.NotNil(t, reloaded.CooldownUntil)

	_, err = svc.Request(ctx, marketer)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	require.Contains(t, typed.Message(), "cooldown")

	// once the cooldown elapses a fresh request replaces the rejected row
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, db.Model(&models.AdditionalPickupRequest{}).
		Where("id = ?", request.ID).Update("cooldown_until", past).Error)

	fresh, err := svc.Request(ctx, marketer)
	require.NoError(t, err)
	require.NotEqual(t, request.ID, fresh.ID)
	require.Equal(t, enums.AllowanceRequestStatusPending, fresh.Status)

	var count int64
	require.NoError(t, db.Model(&models.AdditionalPickupRequest{}).Where("marketer_id = ?", marketer).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAllowanceReviewDecidesOnce(t *testing.T) {
	t.Parallel()

	db := setupAllowanceTestDB(t)
	ctx := context.Background()
	svc := newAllowanceService(t, db, config.PickupConfig{})
	marketer := uuid.New()
	admin := uuid.New()

	request, err := svc.Request(ctx, marketer)
	require.NoError(t, err)
	require.NoError(t, svc.Review(ctx, request.ID, admin, DecisionApprove))

	err = svc.Review(ctx, request.ID, admin, DecisionReject)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	require.Contains(t, typed.Message(), "already decided")
}

func TestAllowanceReviewValidation(t *testing.T) {
	t.Parallel()

	db := setupAllowanceTestDB(t)
	ctx := context.Background()
	svc := newAllowanceService(t, db, config.PickupConfig{})

	err := svc.Review(ctx, uuid.New(), uuid.New(), Decision("maybe"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	err = svc.Review(ctx, uuid.New(), uuid.New(), DecisionApprove)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListPendingExcludesDecided(t *testing.T) {
	t.Parallel()

	db := setupAllowanceTestDB(t)
	ctx := context.Background()
	svc := newAllowanceService(t, db, config.PickupConfig{})

	first, err := svc.Request(ctx, uuid.New())
	require.NoError(t, err)
	second, err := svc.Request(ctx, uuid.New())
	require.NoError(t, err)

	// an already-decided request is excluded
	decided, err := svc.Request(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, svc.Review(ctx, decided.ID, uuid.New(), DecisionApprove))

	rows, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	ids := []uuid.UUID{rows[0].ID, rows[1].ID}
	require.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
}
