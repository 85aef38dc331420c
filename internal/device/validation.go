package device

import (
	"fmt"

	"github.com/google/uuid"
)

// Validation constants.
const (
	maxNameLength = 100

	// Size limits for JSON fields to prevent DoS via memory exhaustion.
	// These are generous limits for home automation use cases.
	maxAddressKeys    = 20   // Max keys in address map
	maxStateKeys      = 100  // Max keys in state map (devices can have many readings)
	maxStringValueLen = 1024 // Max length for string values in JSON maps
)

// Pre-computed validation sets for O(1) lookups instead of O(n) linear search.
var (
	validProtocols    map[Protocol]struct{}
	validDeviceTypes  map[DeviceType]struct{}
	validHealthStatus map[HealthStatus]struct{}
)

func init() {
	// Build validation sets once at startup
	validProtocols = make(map[Protocol]struct{}, len(AllProtocols()))
	for _, p := range AllProtocols() {
		validProtocols[p] = struct{}{}
	}

	validDeviceTypes = make(map[DeviceType]struct{}, len(AllDeviceTypes()))
	for _, t := range AllDeviceTypes() {
		validDeviceTypes[t] = struct{}{}
	}

	validHealthStatus = make(map[HealthStatus]struct{}, len(AllHealthStatuses()))
	for _, s := range AllHealthStatuses() {
		validHealthStatus[s] = struct{}{}
	}
}

// ValidateDevice performs validation on a device.
// Returns an error describing the first validation failure found.
func ValidateDevice(d *Device) error {
	if d == nil {
		return fmt.Errorf("%w: device is nil", ErrInvalidDevice)
	}

	if d.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDevice)
	}

	if err := ValidateName(d.Name); err != nil {
		return err
	}

	if err := ValidateProtocol(d.Protocol); err != nil {
		return err
	}

	if err := ValidateDeviceType(d.Type); err != nil {
		return err
	}

	if d.HealthStatus != "" {
		if err := ValidateHealthStatus(d.HealthStatus); err != nil {
			return err
		}
	}

	if err := validateMapSize(d.Address, "address", maxAddressKeys); err != nil {
		return err
	}

	return validateMapSize(d.State, "state", maxStateKeys)
}

// validateMapSize checks a JSON map against key-count and value-size limits.
func validateMapSize(m map[string]any, fieldName string, maxKeys int) error {
	if len(m) > maxKeys {
		return fmt.Errorf("%w: %s has %d keys, maximum %d", ErrInvalidDevice, fieldName, len(m), maxKeys)
	}
	for k, v := range m {
		if s, ok := v.(string); ok && len(s) > maxStringValueLen {
			return fmt.Errorf("%w: %s[%q] string value too long (%d bytes, maximum %d)",
				ErrInvalidDevice, fieldName, k, len(s), maxStringValueLen)
		}
	}
	return nil
}

// ValidateName checks a device name is non-empty and within length limits.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateProtocol checks a protocol value is recognised.
func ValidateProtocol(protocol Protocol) error {
	if _, ok := validProtocols[protocol]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidProtocol, protocol)
	}
	return nil
}

// ValidateDeviceType checks a device type is recognised.
func ValidateDeviceType(deviceType DeviceType) error {
	if _, ok := validDeviceTypes[deviceType]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceType, deviceType)
	}
	return nil
}

// ValidateHealthStatus checks a health status value is recognised.
func ValidateHealthStatus(status HealthStatus) error {
	if _, ok := validHealthStatus[status]; !ok {
		return fmt.Errorf("%w: invalid health status %q", ErrInvalidDevice, status)
	}
	return nil
}

// GenerateID returns a new unique device identifier.
func GenerateID() string {
	return uuid.New().String()
}
