package wemo

import "errors"

// WeMo model names with model-specific telemetry.
const (
	ModelInsight = "Insight"
	ModelMaker   = "Maker"
)

// Insight standby mode values as reported by the device.
// Anything other than on/off is treated as standby — the device actually
// reports 8, but matching the known on/off values is the safer check.
const (
	insightStateOff = "0"
	insightStateOn  = "1"
)

// ErrParamsUnavailable is returned by SDK implementations when a
// telemetry attribute has not been populated yet. The switch treats it as
// a degraded refresh, not a failure.
var ErrParamsUnavailable = errors.New("wemo: device parameters not yet available")

// InsightParams is the power telemetry snapshot of an Insight switch.
type InsightParams struct {
	// CurrentPowerMW is the instantaneous power draw in milliwatts.
	CurrentPowerMW int64

	// TodayMW is today's cumulative power usage in milliwatts.
	TodayMW int64

	// State is the device's raw power state: "0" off, "1" on, other
	// values mean the load is in standby.
	State string
}

// MakerParams is the sensor/relay snapshot of a Maker switch.
type MakerParams struct {
	// SensorState is the raw sensor reading. Note the inversion: 1
	// matches the WeMo app's "not triggered".
	SensorState int

	// SwitchMode is 0 for toggle, 1 for momentary.
	SwitchMode int

	// HasSensor reports whether a sensor is attached.
	HasSensor int
}

// Device is the vendor SDK surface the bridge depends on. Implementations
// wrap the UPnP SOAP client; tests substitute a fake.
type Device interface {
	// SerialNumber returns the device serial, the identity key
	// subscription events are matched against.
	SerialNumber() string

	// Name returns the user-assigned device name.
	Name() string

	// ModelName returns the hardware model ("Switch", "Insight", "Maker").
	ModelName() string

	// GetState returns the relay state. When force is true the device is
	// queried; otherwise a cached value may be returned.
	GetState(force bool) (bool, error)

	// On switches the relay on.
	On() error

	// Off switches the relay off.
	Off() error

	// InsightParams returns the power telemetry snapshot.
	// Returns ErrParamsUnavailable until the device has populated it.
	InsightParams() (InsightParams, error)

	// MakerParams returns the sensor/relay snapshot.
	// Returns ErrParamsUnavailable until the device has populated it.
	MakerParams() (MakerParams, error)
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
