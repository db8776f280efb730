package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypePickupAlert   NotificationType = "pickup_alert"
	NotificationTypeOrderAlert    NotificationType = "order_alert"
	NotificationTypeReturnAlert   NotificationType = "return_alert"
	NotificationTypeTransferAlert NotificationType = "transfer_alert"
	NotificationTypeAccountAlert  NotificationType = "account_alert"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePickupAlert,
	NotificationTypeOrderAlert,
	NotificationTypeReturnAlert,
	NotificationTypeTransferAlert,
	NotificationTypeAccountAlert,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
