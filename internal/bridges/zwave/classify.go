package zwave

import "time"

// Workaround kinds for devices with known firmware quirks.
// Only one kind exists today; the table is extensible by adding entries.
type workaround string

const (
	// workaroundNoOffEvent marks devices that send an On notification but
	// never a corresponding Off. They get a TriggerSensor with a synthetic
	// re-arm window.
	workaroundNoOffEvent workaround = "trigger_no_off_event"
)

// Philio Technology Corporation identifiers.
const (
	philioManufacturerID = "013c"
	philioSlimSensor     = "0002"
)

// deviceKey identifies a specific value on a specific product.
type deviceKey struct {
	manufacturerID string
	productID      string
	index          int
}

// deviceWorkarounds maps known-quirky devices to their workaround kind.
// Matches take precedence over generic command-class classification.
var deviceWorkarounds = map[deviceKey]workaround{
	// Philio PSM02 slim multisensor: motion value never clears.
	{philioManufacturerID, philioSlimSensor, 0}: workaroundNoOffEvent,
}

// SensorDeps carries the collaborators a sensor needs.
// Push is invoked after every state change; Clock and Scheduler default to
// the production implementations when nil and only apply to trigger sensors.
type SensorDeps struct {
	Push      func(Sensor)
	Clock     Clock
	Scheduler Scheduler

	// ReArmBase overrides the trigger sensor re-arm base unit.
	// Zero selects the default.
	ReArmBase time.Duration
}

// NewSensor selects and constructs the handler variant for a discovered
// value: the workaround table is consulted first, then generic
// command-class rules. Values the bridge cannot handle return (nil, false)
// — hardware diversity is unbounded, so an unclassifiable value is
// skipped, never an error.
func NewSensor(value Value, node Node, deps SensorDeps) (Sensor, bool) {
	key := deviceKey{
		manufacturerID: node.ManufacturerID,
		productID:      node.ProductID,
		index:          value.Index,
	}

	if kind, ok := deviceWorkarounds[key]; ok && kind == workaroundNoOffEvent {
		return NewTriggerSensor(value, node, deps), true
	}

	switch value.CommandClass {
	case CommandClassSensorBinary:
		return NewBinarySensor(value, node, deps.Push), true
	case CommandClassSensorMultilevel:
		return NewMultilevelSensor(value, node, deps.Push), true
	case CommandClassMeter:
		// Only decimal meter readings map to a sensor entity.
		if value.Type == ValueTypeDecimal {
			return NewMultilevelSensor(value, node, deps.Push), true
		}
		return nil, false
	case CommandClassAlarm:
		return NewAlarmSensor(value, node, deps.Push), true
	default:
		return nil, false
	}
}
