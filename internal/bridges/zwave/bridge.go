package zwave

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hearthwave/hearthwave-core/internal/entity"
)

// Topic scheme for state published by this bridge:
// hearthwave/state/zwave/{entity_id}.
const topicPrefix = "hearthwave"

// StateTopic returns the MQTT topic for a sensor's state updates.
func StateTopic(entityID string) string {
	return fmt.Sprintf("%s/state/zwave/%s", topicPrefix, entityID)
}

// MQTTClient is the interface for MQTT operations.
// Satisfied by *mqtt.Client; mocked in tests.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// DeviceRegistry provides device state and health persistence.
// Satisfied by *device.Registry via an adapter in main. Optional — if nil,
// the bridge operates without registry integration.
type DeviceRegistry interface {
	// CreateDeviceIfNotExists seeds a device record on discovery.
	// No-op if the device already exists.
	CreateDeviceIfNotExists(ctx context.Context, seed DeviceSeed) error

	// SetDeviceState updates the persisted state of a device.
	SetDeviceState(ctx context.Context, id string, state map[string]any) error

	// SetDeviceHealth updates the health status of a device.
	SetDeviceHealth(ctx context.Context, id string, status string) error
}

// DeviceSeed holds device fields derivable from the Z-Wave handle.
type DeviceSeed struct {
	ID           string
	Name         string
	Type         string
	Protocol     string
	Manufacturer string
	Model        string
	Address      map[string]string
}

// Hub broadcasts entity state to WebSocket clients. Optional.
type Hub interface {
	Broadcast(channel string, payload any)
}

// Telemetry records numeric sensor readings for history. Optional.
type Telemetry interface {
	WriteDeviceMetric(deviceID string, measurement string, value float64)
}

// Bridge owns the Z-Wave side of the entity model: it classifies
// discovered values into sensors, routes notifications to them through
// the subscription registry, and pushes every canonical state change to
// MQTT, the device registry, and the WebSocket hub.
//
// Thread Safety: all methods are safe for concurrent use.
type Bridge struct {
	subs *Subscriptions

	mqtt      MQTTClient
	registry  DeviceRegistry // optional
	hub       Hub            // optional
	telemetry Telemetry      // optional

	clock     Clock
	scheduler Scheduler
	reArmBase time.Duration

	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once

	logger Logger
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// Source delivers value-change notifications. Required.
	Source NotificationSource

	// MQTT publishes canonical state. Required.
	MQTT MQTTClient

	// Registry persists device state and health. Optional.
	Registry DeviceRegistry

	// Hub streams state to WebSocket clients. Optional.
	Hub Hub

	// Telemetry records numeric readings. Optional.
	Telemetry Telemetry

	// Logger is an optional structured logger.
	Logger Logger

	// Clock and Scheduler override the production time facilities.
	// Used by tests; nil selects the defaults.
	Clock     Clock
	Scheduler Scheduler

	// ReArmBase is the base unit for trigger sensor re-arm windows.
	// Zero selects the default.
	ReArmBase time.Duration
}

// NewBridge creates a Z-Wave bridge. Call Start to begin dispatching.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("notification source is required")
	}
	if opts.MQTT == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bridge{
		subs:      NewSubscriptions(opts.Source),
		mqtt:      opts.MQTT,
		registry:  opts.Registry,
		hub:       opts.Hub,
		telemetry: opts.Telemetry,
		clock:     opts.Clock,
		scheduler: opts.Scheduler,
		reArmBase: opts.ReArmBase,
		ctx:       ctx,
		ctxCancel: cancel,
		logger:    logger,
	}
	b.subs.SetLogger(logger)

	return b, nil
}

// AddValue classifies a discovered value and, when a handler variant
// exists for it, registers the sensor and seeds the device registry.
// Unclassifiable values return (nil, false) without error.
func (b *Bridge) AddValue(ctx context.Context, value Value, node Node) (Sensor, bool) {
	sensor, ok := NewSensor(value, node, SensorDeps{
		Push:      b.pushState,
		Clock:     b.clock,
		Scheduler: b.scheduler,
		ReArmBase: b.reArmBase,
	})
	if !ok {
		b.logger.Debug("value skipped",
			"node_id", node.ID,
			"value_id", value.ID,
			"command_class", value.CommandClass.String())
		return nil, false
	}

	b.subs.Register(sensor)

	if b.registry != nil {
		seed := DeviceSeed{
			ID:           sensor.ID(),
			Name:         sensor.Name(),
			Type:         seedType(sensor),
			Protocol:     "zwave",
			Manufacturer: node.ManufacturerName,
			Model:        node.ProductName,
			Address: map[string]string{
				"node_id":  fmt.Sprintf("%d", node.ID),
				"value_id": value.ID,
			},
		}
		if err := b.registry.CreateDeviceIfNotExists(ctx, seed); err != nil {
			b.logger.Warn("device seed failed",
				"entity_id", sensor.ID(),
				"error", err)
		}
	}

	b.logger.Info("sensor added",
		"entity_id", sensor.ID(),
		"command_class", value.CommandClass.String())

	return sensor, true
}

// seedType maps a handler variant to the registry's device type.
func seedType(s Sensor) string {
	switch s.(type) {
	case *TriggerSensor:
		return "trigger_sensor"
	case *MultilevelSensor:
		return "multilevel_sensor"
	case *AlarmSensor:
		return "alarm_sensor"
	default:
		return "binary_sensor"
	}
}

// Start begins routing notifications to registered sensors.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.subs.Start(ctx); err != nil {
		return fmt.Errorf("starting subscriptions: %w", err)
	}
	b.logger.Info("zwave bridge started", "sensors", b.subs.Count())
	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.subs.Stop()
		b.ctxCancel()
		b.logger.Info("zwave bridge stopped")
	})
}

// SensorCount returns the number of registered sensors.
func (b *Bridge) SensorCount() int {
	return b.subs.Count()
}

// pushState publishes a sensor's canonical state to every outbound
// surface. Failures on one surface never block the others — degraded
// reporting beats dropped updates.
func (b *Bridge) pushState(s Sensor) {
	msg := entity.NewStateMessage(s)

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("failed to marshal state", "error", err)
		return
	}

	if err := b.mqtt.Publish(StateTopic(s.ID()), payload, 1, true); err != nil {
		b.logger.Error("failed to publish state",
			"entity_id", s.ID(),
			"error", err)
	}

	if b.hub != nil {
		b.hub.Broadcast("device.state_changed", msg)
	}

	if b.registry != nil {
		state := map[string]any{"state": msg.State.String()}
		if msg.Unit != "" {
			state["unit"] = msg.Unit
		}
		if err := b.registry.SetDeviceState(b.ctx, s.ID(), state); err != nil {
			b.logger.Debug("registry state update skipped",
				"entity_id", s.ID(),
				"reason", err.Error())
		} else if err := b.registry.SetDeviceHealth(b.ctx, s.ID(), "online"); err != nil {
			b.logger.Debug("registry health update skipped",
				"entity_id", s.ID(),
				"reason", err.Error())
		}
	}

	if b.telemetry != nil {
		if v, ok := msg.State.Value().(float64); ok {
			b.telemetry.WriteDeviceMetric(s.ID(), "reading", v)
		}
	}
}
