package zwave

import (
	"fmt"
	"sync"

	"github.com/hearthwave/hearthwave-core/internal/entity"
)

// Sensor is the uniform surface the bridge exposes for every classified
// Z-Wave value. Exactly one variant exists per value:
// TriggerSensor, BinarySensor, MultilevelSensor, or AlarmSensor.
type Sensor interface {
	entity.Entity

	// ValueID returns the network value identity notifications are
	// matched against.
	ValueID() string

	// HandleNotification applies a value-change event. Called by the
	// subscription registry when the notification's value ID matches.
	HandleNotification(n Notification)
}

// sensor holds the state and identity shared by all variants.
//
// The Value and Node handles are immutable for the sensor's lifetime; only
// the latest raw payload mutates, guarded by mu.
type sensor struct {
	value Value
	node  Node

	mu   sync.RWMutex
	data any // latest raw payload, nil until first notification

	// push reports a state change to the bridge. Never nil.
	push func(Sensor)
}

func newSensor(value Value, node Node, push func(Sensor)) sensor {
	if push == nil {
		push = func(Sensor) {}
	}
	return sensor{value: value, node: node, push: push}
}

// ID returns the platform-unique entity identifier.
func (s *sensor) ID() string {
	return fmt.Sprintf("zwave-%d-%s", s.node.ID, s.value.ID)
}

// Name combines the node name (or manufacturer and product when the node
// is unnamed) with the value label.
func (s *sensor) Name() string {
	name := s.node.Name
	if name == "" {
		name = fmt.Sprintf("%s %s", s.node.ManufacturerName, s.node.ProductName)
	}
	return fmt.Sprintf("%s %s", name, s.value.Label)
}

// ValueID returns the value identity for notification routing.
func (s *sensor) ValueID() string {
	return s.value.ID
}

// Unit returns the vendor unit string unchanged. Variants that canonicalise
// units override this.
func (s *sensor) Unit() string {
	return s.value.Units
}

// Attributes returns the sensor attribute map. Battery level and location
// are included only when the node reports them.
func (s *sensor) Attributes() map[string]any {
	attrs := map[string]any{
		entity.AttrNodeID: s.node.ID,
	}
	if s.node.BatteryLevel != nil {
		attrs[entity.AttrBatteryLevel] = *s.node.BatteryLevel
	}
	if s.node.Location != "" {
		attrs[entity.AttrLocation] = s.node.Location
	}
	return attrs
}

// lastData returns the latest raw payload.
func (s *sensor) lastData() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// setData records the latest raw payload.
func (s *sensor) setData(data any) {
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
}

// BinarySensor is a sensor whose value reports on/off directly.
type BinarySensor struct {
	sensor
}

// NewBinarySensor creates a binary sensor for the given value.
// push is invoked after every applied notification.
func NewBinarySensor(value Value, node Node, push func(Sensor)) *BinarySensor {
	return &BinarySensor{sensor: newSensor(value, node, push)}
}

// State returns On when the latest payload is truthy, Off otherwise.
func (s *BinarySensor) State() entity.State {
	return Normalize(CommandClassSensorBinary, s.lastData(), s.value.Units)
}

// HandleNotification records the payload and pushes the update.
func (s *BinarySensor) HandleNotification(n Notification) {
	s.setData(n.Data)
	s.push(s)
}

// MultilevelSensor is a sensor reporting a numeric measurement
// (temperature, luminance, decimal meter readings, ...).
type MultilevelSensor struct {
	sensor
}

// NewMultilevelSensor creates a multilevel sensor for the given value.
func NewMultilevelSensor(value Value, node Node, push func(Sensor)) *MultilevelSensor {
	return &MultilevelSensor{sensor: newSensor(value, node, push)}
}

// State returns the rounded numeric reading.
func (s *MultilevelSensor) State() entity.State {
	return Normalize(CommandClassSensorMultilevel, s.lastData(), s.value.Units)
}

// Unit returns the canonical unit name (°C/°F for temperature readings).
func (s *MultilevelSensor) Unit() string {
	return entity.CanonicalUnit(s.value.Units)
}

// HandleNotification records the payload and pushes the update.
func (s *MultilevelSensor) HandleNotification(n Notification) {
	s.setData(n.Data)
	s.push(s)
}

// AlarmSensor wraps a COMMAND_CLASS_ALARM value. Z-Wave defines alarm
// types such as Smoke, Flood, Burglar, and CarbonMonoxide; this layer
// passes the raw alarm payload through and lets consumers interpret the
// subtype.
type AlarmSensor struct {
	sensor
}

// NewAlarmSensor creates an alarm sensor for the given value.
func NewAlarmSensor(value Value, node Node, push func(Sensor)) *AlarmSensor {
	return &AlarmSensor{sensor: newSensor(value, node, push)}
}

// State returns the raw alarm payload as a numeric state.
func (s *AlarmSensor) State() entity.State {
	return Normalize(CommandClassAlarm, s.lastData(), s.value.Units)
}

// HandleNotification records the payload and pushes the update.
func (s *AlarmSensor) HandleNotification(n Notification) {
	s.setData(n.Data)
	s.push(s)
}
