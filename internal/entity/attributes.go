package entity

// Attribute keys published alongside canonical state.
//
// Absent or unknown values are omitted from the attributes map entirely,
// never defaulted to zero/false — consumers treat a missing key as "unknown".
const (
	// Sensor-class attributes.
	AttrNodeID       = "node_id"
	AttrBatteryLevel = "battery_level"
	AttrLocation     = "location"

	// Switch-class attributes (WeMo Insight / Maker).
	AttrCurrentPowerMWH = "current_power_mwh"
	AttrTodayPowerMW    = "today_power_mw"
	AttrSensorState     = "sensor_state"
	AttrSwitchMode      = "switch_mode"
	AttrHasSensor       = "has_sensor"
)

// Entity is the uniform surface every device handler variant exposes to the
// host platform. Implementations push their own updates when hardware
// notifies them; the platform never polls.
type Entity interface {
	// ID returns the platform-unique entity identifier,
	// e.g. "zwave-5-72057594076299264" or "wemo-221448K1100085".
	ID() string

	// Name returns the human-readable device name.
	Name() string

	// State returns the current canonical state, recomputed live from the
	// latest raw payload.
	State() State

	// Attributes returns supplemental state attributes. Unknown fields are
	// omitted from the map.
	Attributes() map[string]any

	// Unit returns the canonical unit of measurement, or "" when the entity
	// has no unit.
	Unit() string
}
