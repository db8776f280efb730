package enums

import "fmt"

// PickupStatus tracks the lifecycle of a stock pickup. The string values are
// a durable contract consumed by dashboards and must not change.
type PickupStatus string

const (
	PickupStatusPending          PickupStatus = "pending"
	PickupStatusPendingOrder     PickupStatus = "pending_order"
	PickupStatusReturnPending    PickupStatus = "return_pending"
	PickupStatusReturned         PickupStatus = "returned"
	PickupStatusTransferPending  PickupStatus = "transfer_pending"
	PickupStatusTransferApproved PickupStatus = "transfer_approved"
	PickupStatusTransferRejected PickupStatus = "transfer_rejected"
	PickupStatusSold             PickupStatus = "sold"
	PickupStatusExpired          PickupStatus = "expired"
)

var validPickupStatuses = []PickupStatus{
	PickupStatusPending,
	PickupStatusPendingOrder,
	PickupStatusReturnPending,
	PickupStatusReturned,
	PickupStatusTransferPending,
	PickupStatusTransferApproved,
	PickupStatusTransferRejected,
	PickupStatusSold,
	PickupStatusExpired,
}

// ActivePickupStatuses are the statuses that count against the
// one-active-pickup-per-marketer limit.
var ActivePickupStatuses = []PickupStatus{
	PickupStatusPending,
	PickupStatusPendingOrder,
	PickupStatusReturnPending,
	PickupStatusTransferPending,
}

// String implements fmt.Stringer.
func (s PickupStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PickupStatus.
func (s PickupStatus) IsValid() bool {
	for _, candidate := range validPickupStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsActive reports whether the status holds inventory against the marketer.
func (s PickupStatus) IsActive() bool {
	for _, candidate := range ActivePickupStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePickupStatus converts raw input into a PickupStatus.
func ParsePickupStatus(value string) (PickupStatus, error) {
	for _, candidate := range validPickupStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pickup status %q", value)
}
