package zwave

import "fmt"

// CommandClass identifies the Z-Wave capability a value belongs to.
// Only the classes this bridge handles are listed; anything else is
// skipped at classification time.
type CommandClass uint8

// Z-Wave command classes handled by the bridge.
const (
	CommandClassSensorBinary     CommandClass = 0x30
	CommandClassSensorMultilevel CommandClass = 0x31
	CommandClassMeter            CommandClass = 0x32
	CommandClassAlarm            CommandClass = 0x71
)

// String returns the command class name for logging.
func (c CommandClass) String() string {
	switch c {
	case CommandClassSensorBinary:
		return "sensor_binary"
	case CommandClassSensorMultilevel:
		return "sensor_multilevel"
	case CommandClassMeter:
		return "meter"
	case CommandClassAlarm:
		return "alarm"
	default:
		return fmt.Sprintf("unknown(0x%02X)", uint8(c))
	}
}

// ValueType qualifies the payload encoding of a value. Meter values are
// only bridged when they carry decimal readings.
type ValueType string

// Value payload types.
const (
	ValueTypeBool    ValueType = "bool"
	ValueTypeDecimal ValueType = "decimal"
	ValueTypeInt     ValueType = "int"
	ValueTypeString  ValueType = "string"
)

// Value is the immutable half of a device handle: one reported value on a
// Z-Wave node. The ID is unique across the network and is the identity key
// notifications are matched against.
type Value struct {
	ID           string
	Index        int
	CommandClass CommandClass
	Type         ValueType
	Label        string
	Units        string
}

// Node is the other half of a device handle: the physical Z-Wave node a
// value belongs to. Manufacturer and product IDs are the vendor's hex
// strings as reported by the controller (e.g. "013c").
type Node struct {
	ID               int
	ManufacturerID   string
	ProductID        string
	ManufacturerName string
	ProductName      string
	Name             string
	Location         string
	BatteryLevel     *int

	// Config holds per-device configuration parameters read from the
	// node's configuration command class, keyed by parameter index.
	Config map[int]int
}

// ConfigParam returns the node configuration parameter at index, or
// fallback when the parameter is absent or zero.
func (n Node) ConfigParam(index, fallback int) int {
	if v, ok := n.Config[index]; ok && v != 0 {
		return v
	}
	return fallback
}

// Notification is a value-change event delivered by the notification
// source. Beyond the identity fields it is opaque to the bridge: Data is
// passed to the normaliser untouched.
type Notification struct {
	ValueID string
	NodeID  int
	Data    any
}

// NotificationSource is the external push mechanism delivering value-change
// events. Implementations own the delivery goroutine; handlers must not
// block it for long.
type NotificationSource interface {
	// SetOnValueChanged registers the handler invoked for every value
	// change on the network. Must be called before events start flowing.
	SetOnValueChanged(handler func(Notification))
}

// Logger is the logging interface used by this package.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
