package pickups

import (
	"fmt"
	"time"

	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
)

// Event is a pickup lifecycle trigger.
type Event string

const (
	EventPlaceOrder      Event = "place_order"
	EventCancelOrder     Event = "cancel_order"
	EventConfirmOrder    Event = "confirm_order"
	EventRequestReturn   Event = "request_return"
	EventConfirmReturn   Event = "confirm_return"
	EventRequestTransfer Event = "request_transfer"
	EventApproveTransfer Event = "approve_transfer"
	EventRejectTransfer  Event = "reject_transfer"
	EventExpire          Event = "expire"
)

// transitions is the single source of truth for legal pickup moves. Every
// entry point routes through Transition; anything absent here is illegal.
var transitions = map[enums.PickupStatus]map[Event]enums.PickupStatus{
	enums.PickupStatusPending: {
		EventPlaceOrder:      enums.PickupStatusPendingOrder,
		EventConfirmOrder:    enums.PickupStatusSold,
		EventRequestReturn:   enums.PickupStatusReturnPending,
		EventRequestTransfer: enums.PickupStatusTransferPending,
		EventExpire:          enums.PickupStatusReturnPending,
	},
	enums.PickupStatusPendingOrder: {
		EventConfirmOrder: enums.PickupStatusSold,
		EventCancelOrder:  enums.PickupStatusPending,
		EventExpire:       enums.PickupStatusReturnPending,
	},
	enums.PickupStatusReturnPending: {
		EventConfirmReturn: enums.PickupStatusReturned,
	},
	enums.PickupStatusTransferPending: {
		EventApproveTransfer: enums.PickupStatusTransferApproved,
		EventRejectTransfer:  enums.PickupStatusPending,
	},
}

// Transition resolves the next status for an event, or a state-conflict
// error when the move is illegal from the current status.
func Transition(current enums.PickupStatus, event Event) (enums.PickupStatus, error) {
	if next, ok := transitions[current][event]; ok {
		return next, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot %s a pickup in %q status", describeEvent(event), current))
}

// CanFire reports whether an event is legal from the current status.
func CanFire(current enums.PickupStatus, event Event) bool {
	_, ok := transitions[current][event]
	return ok
}

// DeadlinePassed is the single deadline predicate shared by order placement
// and the expiration sweep so the two paths never diverge.
func DeadlinePassed(deadline, now time.Time) bool {
	return !deadline.After(now)
}

func describeEvent(event Event) string {
	switch event {
	case EventPlaceOrder:
		return "place an order against"
	case EventCancelOrder:
		return "cancel the order of"
	case EventConfirmOrder:
		return "confirm the order of"
	case EventRequestReturn:
		return "request a return of"
	case EventConfirmReturn:
		return "confirm the return of"
	case EventRequestTransfer:
		return "request a transfer of"
	case EventApproveTransfer:
		return "approve the transfer of"
	case EventRejectTransfer:
		return "reject the transfer of"
	case EventExpire:
		return "expire"
	default:
		return string(event)
	}
}
