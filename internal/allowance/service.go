package allowance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/pkg/config"
	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Decision is the admin verdict on an additional-pickup request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Service governs how many units a marketer may claim in one pickup.
type Service interface {
	Request(ctx context.Context, marketerID uuid.UUID) (*models.AdditionalPickupRequest, error)
	Review(ctx context.Context, requestID, reviewerID uuid.UUID, decision Decision) error
	ListPending(ctx context.Context) ([]models.AdditionalPickupRequest, error)
	// AllowanceFor resolves the marketer's current per-pickup unit limit
	// inside the caller's transaction, together with the approved request
	// that grants the boost (nil when on the default limit).
	AllowanceFor(ctx context.Context, tx *gorm.DB, marketerID uuid.UUID) (int, *models.AdditionalPickupRequest, error)
	// Consume deletes a spent approval so it cannot boost a second pickup.
	Consume(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
	cfg  config.PickupConfig
}

// NewService wires the allowance service.
func NewService(repo Repository, tx txRunner, cfg config.PickupConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("allowance repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, cfg: cfg}, nil
}

func (s *service) Request(ctx context.Context, marketerID uuid.UUID) (*models.AdditionalPickupRequest, error) {
	if marketerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "marketer id required")
	}

	var created *models.AdditionalPickupRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByMarketer(ctx, marketerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load allowance request")
		}
		if existing != nil {
			switch existing.Status {
			case enums.AllowanceRequestStatusPending:
				return pkgerrors.New(pkgerrors.CodeStateConflict, "an additional pickup request is already awaiting review")
			case enums.AllowanceRequestStatusApproved:
				return pkgerrors.New(pkgerrors.CodeStateConflict, "an approved additional pickup allowance is already available")
			case enums.AllowanceRequestStatusRejected:
				if existing.CooldownUntil != nil && existing.CooldownUntil.After(time.Now().UTC()) {
					return pkgerrors.New(pkgerrors.CodeStateConflict, "previous request was rejected, wait for the cooldown to pass").
						WithDetails(map[string]any{"cooldown_until": existing.CooldownUntil})
				}
				// cooldown elapsed: the old verdict makes way for a fresh request
				if err := repo.Delete(ctx, existing.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear rejected allowance request")
				}
			}
		}

		request := &models.AdditionalPickupRequest{
			ID:         uuid.New(),
			MarketerID: marketerID,
			Status:     enums.AllowanceRequestStatusPending,
		}
		if err := repo.Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create allowance request")
		}
		created = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Review(ctx context.Context, requestID, reviewerID uuid.UUID, decision Decision) error {
	if requestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if reviewerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "reviewer identity missing")
	}
	if decision != DecisionApprove && decision != DecisionReject {
		return pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByID(ctx, requestID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "allowance request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load allowance request")
		}

		updates := map[string]any{
			"decided_by": reviewerID,
		}
		if decision == DecisionApprove {
			updates["status"] = enums.AllowanceRequestStatusApproved
			updates["cooldown_until"] = nil
		} else {
			updates["status"] = enums.AllowanceRequestStatusRejected
			updates["cooldown_until"] = time.Now().UTC().Add(s.cfg.RejectCooldown())
		}

		affected, err := repo.Decide(ctx, requestID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decide allowance request")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "allowance request was already decided")
		}
		return nil
	})
}

func (s *service) ListPending(ctx context.Context) ([]models.AdditionalPickupRequest, error) {
	rows, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending allowance requests")
	}
	return rows, nil
}

func (s *service) AllowanceFor(ctx context.Context, tx *gorm.DB, marketerID uuid.UUID) (int, *models.AdditionalPickupRequest, error) {
	repo := s.repo.WithTx(tx)
	existing, err := repo.FindByMarketer(ctx, marketerID)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load allowance request")
	}
	if existing != nil && existing.Status == enums.AllowanceRequestStatusApproved {
		return s.boosted(), existing, nil
	}
	return s.defaultLimit(), nil, nil
}

func (s *service) Consume(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error {
	if err := s.repo.WithTx(tx).Delete(ctx, requestID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume allowance approval")
	}
	return nil
}

func (s *service) defaultLimit() int {
	if s.cfg.DefaultAllowance > 0 {
		return s.cfg.DefaultAllowance
	}
	return 1
}

func (s *service) boosted() int {
	if s.cfg.BoostedAllowance > 0 {
		return s.cfg.BoostedAllowance
	}
	return 3
}
