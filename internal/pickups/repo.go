package pickups

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	"github.com/stockline-app/stockline-backend/pkg/pagination"
)

// Repository exposes pickup persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pickup *models.Pickup) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pickup, error)
	FindActiveByMarketer(ctx context.Context, marketerID uuid.UUID) (*models.Pickup, error)
	List(ctx context.Context, params ListParams) ([]models.Pickup, *pagination.Cursor, error)
	UpdateGuarded(ctx context.Context, id uuid.UUID, from []enums.PickupStatus, updates map[string]any) (int64, error)
	OverdueIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// ListParams filters the pickup listing.
type ListParams struct {
	MarketerID *uuid.UUID
	Status     *enums.PickupStatus
	Limit      int
	Cursor     *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pickups repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pickup *models.Pickup) error {
	return r.db.WithContext(ctx).Create(pickup).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pickup, error) {
	var pickup models.Pickup
	err := r.db.WithContext(ctx).
		Preload("Marketer").
		Preload("Product").
		First(&pickup, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &pickup, nil
}

// FindActiveByMarketer returns the marketer's single active pickup, or nil
// when none exists.
func (r *repository) FindActiveByMarketer(ctx context.Context, marketerID uuid.UUID) (*models.Pickup, error) {
	var pickup models.Pickup
	err := r.db.WithContext(ctx).
		Where("marketer_id = ? AND status IN ?", marketerID, enums.ActivePickupStatuses).
		First(&pickup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pickup, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.Pickup, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Pickup{})
	if params.MarketerID != nil {
		query = query.Where("marketer_id = ?", *params.MarketerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Pickup
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

// UpdateGuarded applies updates only while the pickup still sits in one of
// the expected statuses. Callers inspect RowsAffected to detect a lost race.
func (r *repository) UpdateGuarded(ctx context.Context, id uuid.UUID, from []enums.PickupStatus, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Pickup{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// OverdueIDs lists pickups still in an expirable status past their deadline.
func (r *repository) OverdueIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).
		Model(&models.Pickup{}).
		Where("status IN ? AND deadline <= ?", []enums.PickupStatus{enums.PickupStatusPending, enums.PickupStatusPendingOrder}, now).
		Order("deadline ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
