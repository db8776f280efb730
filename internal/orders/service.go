package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/internal/inventory"
	"github.com/stockline-app/stockline-backend/internal/ledger"
	"github.com/stockline-app/stockline-backend/internal/notifications"
	"github.com/stockline-app/stockline-backend/internal/pickups"
	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type commissionLedger interface {
	Credit(ctx context.Context, tx *gorm.DB, input ledger.CreditInput) error
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, msg notifications.Message) error
}

// Service covers order placement, administrative confirmation and
// cancellation.
type Service interface {
	Place(ctx context.Context, input PlaceInput) (*models.Order, error)
	Confirm(ctx context.Context, input ConfirmInput) error
	Cancel(ctx context.Context, input CancelInput) error
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo    Repository
	pickups pickups.Repository
	ledger  commissionLedger
	fanout  notifier
	tx      txRunner
}

// NewService wires the orders service.
func NewService(repo Repository, pickupRepo pickups.Repository, commission commissionLedger, fanout notifier, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if pickupRepo == nil {
		return nil, fmt.Errorf("pickups repository required")
	}
	if commission == nil {
		return nil, fmt.Errorf("commission ledger required")
	}
	if fanout == nil {
		return nil, fmt.Errorf("notification fanout required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    repo,
		pickups: pickupRepo,
		ledger:  commission,
		fanout:  fanout,
		tx:      tx,
	}, nil
}

func (s *service) Place(ctx context.Context, input PlaceInput) (*models.Order, error) {
	if input.MarketerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "marketer identity missing")
	}
	if input.PickupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}
	if input.DeviceCount < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device count must be at least 1")
	}
	if input.CustomerName == "" || input.CustomerPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name and phone required")
	}
	if input.SaleAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale amount cannot be negative")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		pickupRepo := s.pickups.WithTx(tx)
		repo := s.repo.WithTx(tx)

		pickup, err := pickupRepo.FindByID(ctx, input.PickupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}
		if pickup.MarketerID != input.MarketerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the pickup owner can place an order")
		}

		next, err := pickups.Transition(pickup.Status, pickups.EventPlaceOrder)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if pickups.DeadlinePassed(pickup.Deadline, now) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup deadline has passed, the stock is due for return")
		}
		if input.DeviceCount > pickup.Quantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "device count exceeds picked-up quantity").
				WithDetails(map[string]any{"quantity": pickup.Quantity, "requested": input.DeviceCount})
		}

		affected, err := pickupRepo.UpdateGuarded(ctx, pickup.ID, []enums.PickupStatus{pickup.Status}, map[string]any{
			"status": next,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark pickup order pending")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup state changed, reload and retry")
		}

		order := &models.Order{
			ID:            uuid.New(),
			MarketerID:    input.MarketerID,
			PickupID:      pickup.ID,
			DeviceCount:   input.DeviceCount,
			SaleAmount:    input.SaleAmount,
			CustomerName:  input.CustomerName,
			CustomerPhone: input.CustomerPhone,
			Status:        enums.OrderStatusPending,
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		// units stay reserved until an admin verifies the sale
		if err := inventory.AssignToOrder(ctx, tx, pickup.ID, order.ID, input.DeviceCount); err != nil {
			return err
		}

		if pickup.Marketer != nil && pickup.Marketer.AdminID != nil {
			err := s.fanout.Notify(ctx, tx, notifications.Message{
				Recipients: []uuid.UUID{*pickup.Marketer.AdminID},
				Type:       enums.NotificationTypeOrderAlert,
				Title:      "Order awaiting confirmation",
				Body:       fmt.Sprintf("An order for %d device(s) was placed against pickup %s", input.DeviceCount, pickup.ID),
			})
			if err != nil {
				return err
			}
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Confirm(ctx context.Context, input ConfirmInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Actor.IsAdminTier() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can confirm orders")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pickupRepo := s.pickups.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Pickup == nil {
			return pkgerrors.New(pkgerrors.CodeDependency, "order has no pickup attached")
		}

		if _, err := pickups.Transition(order.Pickup.Status, pickups.EventConfirmOrder); err != nil {
			return err
		}

		now := time.Now().UTC()

		// the pickup row is the serialization point: whoever flips it to
		// sold owns the confirmation, a second caller gets zero rows here
		affected, err := pickupRepo.UpdateGuarded(ctx, order.PickupID,
			[]enums.PickupStatus{enums.PickupStatusPending, enums.PickupStatusPendingOrder},
			map[string]any{
				"status":  enums.PickupStatusSold,
				"sold_at": now,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark pickup sold")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup is not awaiting confirmation")
		}

		affected, err = repo.UpdateGuarded(ctx, order.ID, enums.OrderStatusPending, map[string]any{
			"status":       enums.OrderStatusConfirmed,
			"confirmed_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order was already decided")
		}

		sold, err := inventory.MarkSold(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if sold > 0 {
			err = inventory.RecordAdjustment(ctx, tx, &models.InventoryLog{
				ProductID: order.Pickup.ProductID,
				Delta:     -int(sold),
				Reason:    enums.InventoryLogReasonSale,
				PickupID:  &order.PickupID,
				OrderID:   &order.ID,
			})
			if err != nil {
				return err
			}
		}

		marketer := order.Pickup.Marketer
		if marketer == nil {
			return pkgerrors.New(pkgerrors.CodeDependency, "pickup has no marketer attached")
		}
		deviceType := enums.DeviceTypeSmartphone
		if order.Pickup.Product != nil {
			deviceType = order.Pickup.Product.DeviceType
		}
		err = s.ledger.Credit(ctx, tx, ledger.CreditInput{
			OrderID:      order.ID,
			MarketerID:   marketer.ID,
			AdminID:      marketer.AdminID,
			SuperAdminID: marketer.SuperAdminID,
			DeviceType:   deviceType,
			Quantity:     order.DeviceCount,
		})
		if err != nil {
			return err
		}

		recipients := []uuid.UUID{marketer.ID}
		if marketer.AdminID != nil {
			recipients = append(recipients, *marketer.AdminID)
		}
		if marketer.SuperAdminID != nil {
			recipients = append(recipients, *marketer.SuperAdminID)
		}
		return s.fanout.Notify(ctx, tx, notifications.Message{
			Recipients: recipients,
			Type:       enums.NotificationTypeOrderAlert,
			Title:      "Order confirmed",
			Body:       fmt.Sprintf("Order %s was confirmed, commission has been credited", order.ID),
		})
	})
}

func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pickupRepo := s.pickups.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.MarketerID != input.Actor.ID && !input.Actor.IsAdminTier() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "you cannot cancel this order")
		}

		now := time.Now().UTC()
		affected, err := repo.UpdateGuarded(ctx, order.ID, enums.OrderStatusPending, map[string]any{
			"status":      enums.OrderStatusCanceled,
			"canceled_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if affected == 0 {
			// lost the race to a concurrent confirmation
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order was already decided")
		}

		affected, err = pickupRepo.UpdateGuarded(ctx, order.PickupID,
			[]enums.PickupStatus{enums.PickupStatusPendingOrder},
			map[string]any{"status": enums.PickupStatusPending})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reopen pickup")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup state changed, reload and retry")
		}

		// the units detach from the order but stay reserved to the pickup,
		// so the marketer keeps custody until return or a new order
		if err := inventory.ReleaseOrder(ctx, tx, order.ID); err != nil {
			return err
		}

		return s.fanout.Notify(ctx, tx, notifications.Message{
			Recipients: []uuid.UUID{order.MarketerID},
			Type:       enums.NotificationTypeOrderAlert,
			Title:      "Order canceled",
			Body:       fmt.Sprintf("Order %s was canceled, the stock remains on your pickup", order.ID),
		})
	})
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
