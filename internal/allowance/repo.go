package allowance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
)

// Repository persists additional-pickup requests. One row per marketer.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByMarketer(ctx context.Context, marketerID uuid.UUID) (*models.AdditionalPickupRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdditionalPickupRequest, error)
	Create(ctx context.Context, request *models.AdditionalPickupRequest) error
	Decide(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListPending(ctx context.Context) ([]models.AdditionalPickupRequest, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an allowance repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByMarketer(ctx context.Context, marketerID uuid.UUID) (*models.AdditionalPickupRequest, error) {
	var request models.AdditionalPickupRequest
	err := r.db.WithContext(ctx).First(&request, "marketer_id = ?", marketerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdditionalPickupRequest, error) {
	var request models.AdditionalPickupRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) Create(ctx context.Context, request *models.AdditionalPickupRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// Decide applies review updates only while the request is still pending.
func (r *repository) Decide(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AdditionalPickupRequest{}).
		Where("id = ? AND status = ?", id, enums.AllowanceRequestStatusPending).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.AdditionalPickupRequest{}, "id = ?", id).Error
}

func (r *repository) ListPending(ctx context.Context) ([]models.AdditionalPickupRequest, error) {
	var rows []models.AdditionalPickupRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.AllowanceRequestStatusPending).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
