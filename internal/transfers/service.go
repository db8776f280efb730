package transfers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/internal/notifications"
	"github.com/stockline-app/stockline-backend/internal/pickups"
	"github.com/stockline-app/stockline-backend/internal/users"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
	"github.com/stockline-app/stockline-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, msg notifications.Message) error
}

// Decision is the admin verdict on a transfer request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// RequestInput asks to hand a pending pickup to another marketer.
type RequestInput struct {
	PickupID uuid.UUID `json:"-"`
	TargetID uuid.UUID `json:"target_id" validate:"required"`
	Reason   string    `json:"reason" validate:"required"`
	Actor    types.Actor
}

// ReviewInput carries the admin decision for a pending transfer.
type ReviewInput struct {
	PickupID uuid.UUID
	Decision Decision
	Actor    types.Actor
}

// Service moves a pickup between marketers under administrative review.
type Service interface {
	Request(ctx context.Context, input RequestInput) error
	Review(ctx context.Context, input ReviewInput) error
}

type service struct {
	pickups pickups.Repository
	users   users.Repository
	fanout  notifier
	tx      txRunner
}

// NewService wires the transfer workflow.
func NewService(pickupRepo pickups.Repository, userRepo users.Repository, fanout notifier, tx txRunner) (Service, error) {
	if pickupRepo == nil {
		return nil, fmt.Errorf("pickups repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if fanout == nil {
		return nil, fmt.Errorf("notification fanout required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{pickups: pickupRepo, users: userRepo, fanout: fanout, tx: tx}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) error {
	if input.PickupID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}
	if input.TargetID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer target required")
	}
	if input.Reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer reason required")
	}
	if input.Actor.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	if input.TargetID == input.Actor.ID {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot transfer a pickup to yourself")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		pickupRepo := s.pickups.WithTx(tx)
		userRepo := s.users.WithTx(tx)

		pickup, err := pickupRepo.FindByID(ctx, input.PickupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}
		if pickup.MarketerID != input.Actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the pickup owner can request a transfer")
		}

		next, err := pickups.Transition(pickup.Status, pickups.EventRequestTransfer)
		if err != nil {
			return err
		}

		target, err := userRepo.FindByID(ctx, input.TargetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transfer target not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transfer target")
		}
		if !target.Role.CanReceiveTransfer() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "transfer target cannot receive stock")
		}
		if target.Locked {
			return pkgerrors.New(pkgerrors.CodeForbidden, "transfer target account is locked")
		}
		if pickup.Marketer != nil && target.Location != pickup.Marketer.Location {
			return pkgerrors.New(pkgerrors.CodeForbidden, "transfer target is outside your location")
		}

		targetActive, err := pickupRepo.FindActiveByMarketer(ctx, target.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check target pickups")
		}
		if targetActive != nil {
			return pkgerrors.New(pkgerrors.CodeResourceExhausted, "transfer target already holds an active pickup")
		}

		affected, err := pickupRepo.UpdateGuarded(ctx, pickup.ID, []enums.PickupStatus{pickup.Status}, map[string]any{
			"status":             next,
			"transfer_target_id": target.ID,
			"transfer_reason":    input.Reason,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark transfer pending")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup state changed, reload and retry")
		}

		recipients := []uuid.UUID{pickup.MarketerID, target.ID}
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
			Type:       enums.NotificationTypeTransferAlert,
			Title:      "Stock transfer requested",
			Body:       fmt.Sprintf("Pickup %s is awaiting transfer review", pickup.ID),
		})
	})
}

func (s *service) Review(ctx context.Context, input ReviewInput) error {
	if input.PickupID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}
	if input.Decision != DecisionApprove && input.Decision != DecisionReject {
		return pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}
	if !input.Actor.IsAdminTier() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can review transfers")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		pickupRepo := s.pickups.WithTx(tx)
		userRepo := s.users.WithTx(tx)

		pickup, err := pickupRepo.FindByID(ctx, input.PickupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}

		event := pickups.EventApproveTransfer
		if input.Decision == DecisionReject {
			event = pickups.EventRejectTransfer
		}
		next, err := pickups.Transition(pickup.Status, event)
		if err != nil {
			return err
		}
		if pickup.TransferTargetID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup has no transfer target recorded")
		}
		targetID := *pickup.TransferTargetID

		now := time.Now().UTC()
		updates := map[string]any{
			"status":              next,
			"transfer_decided_at": now,
		}
		if input.Decision == DecisionApprove {
			updates["marketer_id"] = targetID
		} else {
			updates["transfer_target_id"] = nil
		}

		affected, err := pickupRepo.UpdateGuarded(ctx, pickup.ID, []enums.PickupStatus{enums.PickupStatusTransferPending}, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decide transfer")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transfer was already decided")
		}

		recipients := []uuid.UUID{pickup.MarketerID, targetID}
		if pickup.Marketer != nil {
			chain, err := userRepo.Stakeholders(ctx, pickup.Marketer)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve stakeholders")
			}
			recipients = append(recipients, chain...)
		}

		title := "Stock transfer approved"
		body := fmt.Sprintf("Pickup %s now belongs to its transfer target", pickup.ID)
		if input.Decision == DecisionReject {
			title = "Stock transfer rejected"
			body = fmt.Sprintf("Pickup %s stays with its current owner", pickup.ID)
		}
		return s.fanout.Notify(ctx, tx, notifications.Message{
			Recipients: recipients,
			Type:       enums.NotificationTypeTransferAlert,
			Title:      title,
			Body:       body,
		})
	})
}
