package enums

import "fmt"

// InventoryLogReason maps to the inventory_log_reason enum in Postgres.
type InventoryLogReason string

const (
	InventoryLogReasonIntake  InventoryLogReason = "intake"
	InventoryLogReasonSale    InventoryLogReason = "sale"
	InventoryLogReasonRestock InventoryLogReason = "restock"
)

var validInventoryLogReasons = []InventoryLogReason{
	InventoryLogReasonIntake,
	InventoryLogReasonSale,
	InventoryLogReasonRestock,
}

// IsValid reports whether the value is a known InventoryLogReason.
func (r InventoryLogReason) IsValid() bool {
	for _, candidate := range validInventoryLogReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseInventoryLogReason converts raw input into an InventoryLogReason.
func ParseInventoryLogReason(value string) (InventoryLogReason, error) {
	for _, candidate := range validInventoryLogReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory log reason %q", value)
}
