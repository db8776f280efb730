package enums

import "fmt"

// AllowanceRequestStatus tracks an additional-pickup request.
type AllowanceRequestStatus string

const (
	AllowanceRequestStatusPending  AllowanceRequestStatus = "pending"
	AllowanceRequestStatusApproved AllowanceRequestStatus = "approved"
	AllowanceRequestStatusRejected AllowanceRequestStatus = "rejected"
)

var validAllowanceRequestStatuses = []AllowanceRequestStatus{
	AllowanceRequestStatusPending,
	AllowanceRequestStatusApproved,
	AllowanceRequestStatusRejected,
}

// String implements fmt.Stringer.
func (s AllowanceRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AllowanceRequestStatus.
func (s AllowanceRequestStatus) IsValid() bool {
	for _, candidate := range validAllowanceRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAllowanceRequestStatus converts raw input into an AllowanceRequestStatus.
func ParseAllowanceRequestStatus(value string) (AllowanceRequestStatus, error) {
	for _, candidate := range validAllowanceRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid allowance request status %q", value)
}
