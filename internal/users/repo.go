package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
)

// Repository exposes user lookups needed by the pickup lifecycle.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByRole(ctx context.Context, role enums.UserRole) ([]models.User, error)
	Stakeholders(ctx context.Context, marketer *models.User) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a users repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByRole(ctx context.Context, role enums.UserRole) ([]models.User, error) {
	var out []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND locked = ?", role, false).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stakeholders resolves the management chain above a marketer: their admin,
// their super admin and every master admin. The marketer themselves is not
// included; callers decide whether the actor should also be notified.
func (r *repository) Stakeholders(ctx context.Context, marketer *models.User) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]struct{}{}
	var out []uuid.UUID

	add := func(id *uuid.UUID) {
		if id == nil || *id == uuid.Nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		out = append(out, *id)
	}

	add(marketer.AdminID)
	add(marketer.SuperAdminID)

	masters, err := r.FindByRole(ctx, enums.UserRoleMasterAdmin)
	if err != nil {
		return nil, err
	}
	for i := range masters {
		id := masters[i].ID
		add(&id)
	}
	return out, nil
}
