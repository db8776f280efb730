package enums

import "fmt"

// DeviceType classifies the physical devices a product ships as. Commission
// rates are keyed by device type.
type DeviceType string

const (
	DeviceTypeFeaturePhone DeviceType = "feature_phone"
	DeviceTypeSmartphone   DeviceType = "smartphone"
	DeviceTypeTablet       DeviceType = "tablet"
	DeviceTypeAccessory    DeviceType = "accessory"
)

var validDeviceTypes = []DeviceType{
	DeviceTypeFeaturePhone,
	DeviceTypeSmartphone,
	DeviceTypeTablet,
	DeviceTypeAccessory,
}

// String implements fmt.Stringer.
func (d DeviceType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeviceType.
func (d DeviceType) IsValid() bool {
	for _, candidate := range validDeviceTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeviceType converts raw input into a DeviceType.
func ParseDeviceType(value string) (DeviceType, error) {
	for _, candidate := range validDeviceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid device type %q", value)
}
