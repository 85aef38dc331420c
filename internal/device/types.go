package device

import "time"

// Device represents a bridged entity known to the system.
// This matches the database schema in migrations/20260815_100000_create_devices.up.sql.
type Device struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`

	// Classification
	Type DeviceType `json:"type"`

	// Protocol information
	Protocol Protocol `json:"protocol"`
	Address  Address  `json:"address"`

	// Current state
	State          State      `json:"state"`
	StateUpdatedAt *time.Time `json:"state_updated_at,omitempty"`

	// Health monitoring
	HealthStatus   HealthStatus `json:"health_status"`
	HealthLastSeen *time.Time   `json:"health_last_seen,omitempty"`

	// Metadata
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates a complete independent copy of the Device.
// All map fields are cloned so modifications to the copy do not affect
// the original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d // Shallow copy of value fields

	cpy.Address = deepCopyMap(d.Address)
	cpy.State = deepCopyMap(d.State)

	// Pointer fields (*time.Time) don't need deep copy
	// because time.Time is immutable in Go

	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, int, float64, etc.) are safe to copy by value
		return v
	}
}

// Address holds protocol-specific address information as a JSON map.
//
// Examples:
//
//	Z-Wave: {"node_id": 5, "value_id": "72057594093060096"}
//	WeMo:   {"serial": "221448K1100085"}
type Address map[string]any

// State holds the current device state as a JSON map.
//
// Examples:
//   - Binary sensor: {"state": "on"}
//   - Multilevel sensor: {"state": "21.3", "unit": "°C"}
//   - Insight switch: {"state": "standby"}
type State map[string]any

// Protocol represents the communication protocol for a device.
type Protocol string

// Protocol constants.
const (
	ProtocolZWave Protocol = "zwave"
	ProtocolWemo  Protocol = "wemo"
	ProtocolMQTT  Protocol = "mqtt"
)

// AllProtocols returns all valid protocol values.
func AllProtocols() []Protocol {
	return []Protocol{ProtocolZWave, ProtocolWemo, ProtocolMQTT}
}

// DeviceType represents the specific kind of device.
type DeviceType string //nolint:revive // device.DeviceType is clearer than device.Type in calling code

// Sensor device types.
const (
	DeviceTypeBinarySensor     DeviceType = "binary_sensor"
	DeviceTypeTriggerSensor    DeviceType = "trigger_sensor"
	DeviceTypeMultilevelSensor DeviceType = "multilevel_sensor"
	DeviceTypeAlarmSensor      DeviceType = "alarm_sensor"
)

// Switch device types.
const (
	DeviceTypeSwitch        DeviceType = "switch"
	DeviceTypeInsightSwitch DeviceType = "insight_switch"
	DeviceTypeMakerSwitch   DeviceType = "maker_switch"
)

// AllDeviceTypes returns all valid device type values.
func AllDeviceTypes() []DeviceType {
	return []DeviceType{
		DeviceTypeBinarySensor, DeviceTypeTriggerSensor,
		DeviceTypeMultilevelSensor, DeviceTypeAlarmSensor,
		DeviceTypeSwitch, DeviceTypeInsightSwitch, DeviceTypeMakerSwitch,
	}
}

// HealthStatus represents the device health state.
type HealthStatus string

// HealthStatus constants.
const (
	HealthStatusOnline   HealthStatus = "online"
	HealthStatusOffline  HealthStatus = "offline"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusUnknown  HealthStatus = "unknown"
)

// AllHealthStatuses returns all valid health status values.
func AllHealthStatuses() []HealthStatus {
	return []HealthStatus{
		HealthStatusOnline, HealthStatusOffline, HealthStatusDegraded, HealthStatusUnknown,
	}
}
