package pickups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/internal/inventory"
	"github.com/stockline-app/stockline-backend/internal/notifications"
	"github.com/stockline-app/stockline-backend/internal/users"
	"github.com/stockline-app/stockline-backend/pkg/config"
	"github.com/stockline-app/stockline-backend/pkg/db"
	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
	"github.com/stockline-app/stockline-backend/pkg/logger"
	"github.com/stockline-app/stockline-backend/pkg/pagination"
	"github.com/stockline-app/stockline-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// allowanceSource resolves and consumes the marketer's pickup allowance.
type allowanceSource interface {
	AllowanceFor(ctx context.Context, tx *gorm.DB, marketerID uuid.UUID) (int, *models.AdditionalPickupRequest, error)
	Consume(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, msg notifications.Message) error
}

// Service owns the pickup lifecycle: creation, returns and reads.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Pickup, error)
	RequestReturn(ctx context.Context, input ReturnInput) error
	ConfirmReturn(ctx context.Context, pickupID uuid.UUID, actor types.Actor) error
	Get(ctx context.Context, pickupID uuid.UUID, actor types.Actor) (*models.Pickup, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
}

type service struct {
	repo      Repository
	users     users.Repository
	allowance allowanceSource
	fanout    notifier
	tx        txRunner
	cfg       config.PickupConfig
	logg      *logger.Logger
}

// NewService wires the pickup lifecycle service.
func NewService(repo Repository, userRepo users.Repository, allow allowanceSource, fanout notifier, tx txRunner, cfg config.PickupConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pickups repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if allow == nil {
		return nil, fmt.Errorf("allowance source required")
	}
	if fanout == nil {
		return nil, fmt.Errorf("notification fanout required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		users:     userRepo,
		allowance: allow,
		fanout:    fanout,
		tx:        tx,
		cfg:       cfg,
		logg:      logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Pickup, error) {
	if input.MarketerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "marketer identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var created *models.Pickup
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		userRepo := s.users.WithTx(tx)

		marketer, err := userRepo.FindByID(ctx, input.MarketerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "marketer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load marketer")
		}
		if marketer.Role != enums.UserRoleMarketer {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only marketers can pick up stock")
		}
		if marketer.Locked {
			return pkgerrors.New(pkgerrors.CodeForbidden, "your account is locked, contact your admin")
		}

		if err := s.rejectActivePickup(ctx, repo, marketer.ID); err != nil {
			return err
		}

		limit, approval, err := s.allowance.AllowanceFor(ctx, tx, marketer.ID)
		if err != nil {
			return err
		}
		if qty > limit {
			return pkgerrors.New(pkgerrors.CodeResourceExhausted, "quantity exceeds your pickup allowance").
				WithDetails(map[string]any{"allowance": limit, "requested": qty})
		}

		var product models.Product
		if err := tx.WithContext(ctx).Preload("Dealer").First(&product, "id = ?", input.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.Dealer == nil || product.Dealer.Location != marketer.Location {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product dealer is outside your location")
		}

		now := time.Now().UTC()
		pickup := &models.Pickup{
			ID:         uuid.New(),
			MarketerID: marketer.ID,
			ProductID:  product.ID,
			Quantity:   qty,
			Status:     enums.PickupStatusPending,
			PickedUpAt: now,
			Deadline:   now.Add(s.cfg.Deadline()),
		}
		if err := repo.Create(ctx, pickup); err != nil {
			if db.IsUniqueViolation(err, "pickups_active_marketer_key") {
				return pkgerrors.New(pkgerrors.CodeResourceExhausted, "you already hold an active pickup")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pickup")
		}

		// recheck inside the transaction; the insert must not have raced
		// another creation past the earlier read
		var active int64
		if err := tx.WithContext(ctx).Model(&models.Pickup{}).
			Where("marketer_id = ? AND status IN ?", marketer.ID, enums.ActivePickupStatuses).
			Count(&active).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recheck active pickups")
		}
		if active > 1 {
			return pkgerrors.New(pkgerrors.CodeResourceExhausted, "you already hold an active pickup")
		}

		if err := inventory.Reserve(ctx, tx, product.ID, pickup.ID, qty); err != nil {
			return err
		}

		if approval != nil {
			if err := s.allowance.Consume(ctx, tx, approval.ID); err != nil {
				return err
			}
		}

		if marketer.AdminID != nil {
			err := s.fanout.Notify(ctx, tx, notifications.Message{
				Recipients: []uuid.UUID{*marketer.AdminID},
				Type:       enums.NotificationTypePickupAlert,
				Title:      "New stock pickup",
				Body:       fmt.Sprintf("%s picked up %d x %s", marketer.FullName, qty, product.Name),
			})
			if err != nil {
				return err
			}
		}

		created = pickup
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// rejectActivePickup returns the sub-state specific error when the marketer
// already holds active stock. Each blocked path reads differently on the
// client, so the messages stay distinct.
func (s *service) rejectActivePickup(ctx context.Context, repo Repository, marketerID uuid.UUID) error {
	active, err := repo.FindActiveByMarketer(ctx, marketerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active pickups")
	}
	if active == nil {
		return nil
	}

	var msg string
	switch active.Status {
	case enums.PickupStatusPendingOrder:
		msg = "your current pickup has an order awaiting confirmation"
	case enums.PickupStatusReturnPending:
		msg = "your pending return is awaiting admin confirmation"
	case enums.PickupStatusTransferPending:
		msg = "your pending transfer is awaiting admin review"
	default:
		msg = "you already hold an active pickup"
	}
	return pkgerrors.New(pkgerrors.CodeResourceExhausted, msg).
		WithDetails(map[string]any{"pickup_id": active.ID, "status": active.Status})
}

func (s *service) RequestReturn(ctx context.Context, input ReturnInput) error {
	if input.PickupID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}
	if input.Actor.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		pickup, err := repo.FindByID(ctx, input.PickupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}
		if pickup.MarketerID != input.Actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the pickup owner can request a return")
		}

		next, err := Transition(pickup.Status, EventRequestReturn)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		affected, err := repo.UpdateGuarded(ctx, pickup.ID, []enums.PickupStatus{pickup.Status}, map[string]any{
			"status":              next,
			"return_requested_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark return pending")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup state changed, reload and retry")
		}

		recipients := []uuid.UUID{pickup.MarketerID}
		if pickup.Marketer != nil {
			if pickup.Marketer.AdminID != nil {
				recipients = append(recipients, *pickup.Marketer.AdminID)
			}
			if pickup.Marketer.SuperAdminID != nil {
				recipients = append(recipients, *pickup.Marketer.SuperAdminID)
			}
		}
		return s.fanout.Notify(ctx, tx, notifications.Message{
			Recipients: recipients,
			Type:       enums.NotificationTypeReturnAlert,
			Title:      "Stock return requested",
			Body:       fmt.Sprintf("Pickup %s is awaiting return confirmation", pickup.ID),
		})
	})
}

func (s *service) ConfirmReturn(ctx context.Context, pickupID uuid.UUID, actor types.Actor) error {
	if pickupID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}
	if !actor.IsAdminTier() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can confirm returns")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		userRepo := s.users.WithTx(tx)

		pickup, err := repo.FindByID(ctx, pickupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}

		next, err := Transition(pickup.Status, EventConfirmReturn)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		affected, err := repo.UpdateGuarded(ctx, pickup.ID, []enums.PickupStatus{enums.PickupStatusReturnPending}, map[string]any{
			"status":      next,
			"returned_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark pickup returned")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup is no longer awaiting return confirmation")
		}

		released, err := inventory.ReleasePickup(ctx, tx, pickup.ID)
		if err != nil {
			return err
		}

		if err := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", pickup.ProductID).
			UpdateColumn("restocked_count", gorm.Expr("restocked_count + ?", pickup.Quantity)).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump restock counter")
		}

		if released > 0 {
			err = inventory.RecordAdjustment(ctx, tx, &models.InventoryLog{
				ProductID: pickup.ProductID,
				Delta:     int(released),
				Reason:    enums.InventoryLogReasonRestock,
				PickupID:  &pickup.ID,
			})
			if err != nil {
				return err
			}
		}

		recipients := []uuid.UUID{pickup.MarketerID}
		if pickup.Marketer != nil {
			chain, err := userRepo.Stakeholders(ctx, pickup.Marketer)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve stakeholders")
			}
			recipients = append(recipients, chain...)
		}
		return s.fanout.Notify(ctx, tx, notifications.Message{
			Recipients: recipients,
			Type:       enums.NotificationTypeReturnAlert,
			Title:      "Stock return confirmed",
			Body:       fmt.Sprintf("Pickup %s was returned and restocked", pickup.ID),
		})
	})
}

func (s *service) Get(ctx context.Context, pickupID uuid.UUID, actor types.Actor) (*models.Pickup, error) {
	if pickupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}

	pickup, err := s.repo.FindByID(ctx, pickupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
	}
	if pickup.MarketerID != actor.ID && !actor.IsAdminTier() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you cannot view this pickup")
	}
	return pickup, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	params := ListParams{
		Status: input.Status,
		Limit:  input.Limit,
	}
	if !input.Actor.IsAdminTier() {
		id := input.Actor.ID
		params.MarketerID = &id
	}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		params.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pickups")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}
