package wemo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hearthwave/hearthwave-core/internal/entity"
)

// Topic scheme for this bridge:
//
//	state:    hearthwave/state/wemo/{entity_id}
//	commands: hearthwave/command/wemo/{serial}
const topicPrefix = "hearthwave"

// StateTopic returns the MQTT topic for a switch's state updates.
func StateTopic(entityID string) string {
	return fmt.Sprintf("%s/state/wemo/%s", topicPrefix, entityID)
}

// CommandSubscribeTopic returns the wildcard topic for inbound commands.
func CommandSubscribeTopic() string {
	return fmt.Sprintf("%s/command/wemo/+", topicPrefix)
}

// MQTTClient is the interface for MQTT operations.
// Satisfied by *mqtt.Client; mocked in tests.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
}

// DeviceRegistry provides device state and health persistence. Optional.
type DeviceRegistry interface {
	CreateDeviceIfNotExists(ctx context.Context, seed DeviceSeed) error
	SetDeviceState(ctx context.Context, id string, state map[string]any) error
	SetDeviceHealth(ctx context.Context, id string, status string) error
}

// DeviceSeed holds device fields derivable from the WeMo handle.
type DeviceSeed struct {
	ID       string
	Name     string
	Type     string
	Protocol string
	Model    string
	Address  map[string]string
}

// Hub broadcasts entity state to WebSocket clients. Optional.
type Hub interface {
	Broadcast(channel string, payload any)
}

// Telemetry records power telemetry for history. Optional.
type Telemetry interface {
	WriteEnergyMetric(deviceID string, powerWatts float64, energyKWh float64)
}

// CommandMessage is the inbound command payload from Core.
type CommandMessage struct {
	Command string `json:"command"` // "on" or "off"
}

// Bridge owns the WeMo side of the entity model: it registers discovered
// switches with the subscription registry, refreshes them when the device
// pushes an event, and publishes canonical state outward.
//
// Thread Safety: all methods are safe for concurrent use.
type Bridge struct {
	subs *SubscriptionRegistry

	mqtt      MQTTClient
	registry  DeviceRegistry // optional
	hub       Hub            // optional
	telemetry Telemetry      // optional

	mu       sync.RWMutex
	switches map[string]*Switch // serial → switch

	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once

	logger Logger
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// Source delivers UPnP subscription events. Required.
	Source EventSource

	// MQTT publishes state and receives commands. Required.
	MQTT MQTTClient

	// Registry persists device state and health. Optional.
	Registry DeviceRegistry

	// Hub streams state to WebSocket clients. Optional.
	Hub Hub

	// Telemetry records Insight power readings. Optional.
	Telemetry Telemetry

	// Logger is an optional structured logger.
	Logger Logger
}

// NewBridge creates a WeMo bridge. Call Start to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("event source is required")
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
		subs:      NewSubscriptionRegistry(opts.Source),
		mqtt:      opts.MQTT,
		registry:  opts.Registry,
		hub:       opts.Hub,
		telemetry: opts.Telemetry,
		switches:  make(map[string]*Switch),
		ctx:       ctx,
		ctxCancel: cancel,
		logger:    logger,
	}
	b.subs.SetLogger(logger)

	return b, nil
}

// AddDevice wraps a discovered WeMo device, registers its subscription,
// seeds the device registry, and performs an initial refresh.
func (b *Bridge) AddDevice(ctx context.Context, device Device) (*Switch, error) {
	sw := NewSwitch(device, b.pushState, b.logger)
	serial := device.SerialNumber()

	if err := b.subs.Register(device); err != nil {
		return nil, fmt.Errorf("registering %s: %w", sw.ID(), err)
	}
	b.subs.On(serial, func(Event) {
		if err := sw.Refresh(); err != nil {
			b.logger.Warn("could not refresh switch",
				"entity_id", sw.ID(),
				"error", err)
		}
	})

	b.mu.Lock()
	b.switches[serial] = sw
	b.mu.Unlock()

	if b.registry != nil {
		seed := DeviceSeed{
			ID:       sw.ID(),
			Name:     sw.Name(),
			Type:     seedType(device.ModelName()),
			Protocol: "wemo",
			Model:    device.ModelName(),
			Address:  map[string]string{"serial": serial},
		}
		if err := b.registry.CreateDeviceIfNotExists(ctx, seed); err != nil {
			b.logger.Warn("device seed failed", "entity_id", sw.ID(), "error", err)
		}
	}

	// Populate initial state; failure is degraded, not fatal — the next
	// subscription event re-establishes it.
	if err := sw.Refresh(); err != nil {
		b.logger.Warn("initial refresh failed", "entity_id", sw.ID(), "error", err)
	}

	b.logger.Info("switch added", "entity_id", sw.ID(), "model", device.ModelName())
	return sw, nil
}

// seedType maps a hardware model to the registry's device type.
func seedType(model string) string {
	switch model {
	case ModelInsight:
		return "insight_switch"
	case ModelMaker:
		return "maker_switch"
	default:
		return "switch"
	}
}

// Start begins dispatching events and listening for commands.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.subs.Start(ctx); err != nil {
		return fmt.Errorf("starting subscriptions: %w", err)
	}
	if err := b.mqtt.Subscribe(CommandSubscribeTopic(), 1, b.handleCommand); err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}
	b.logger.Info("wemo bridge started", "switches", b.SwitchCount())
	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.subs.Stop()
		b.ctxCancel()
		b.logger.Info("wemo bridge stopped")
	})
}

// SwitchCount returns the number of managed switches.
func (b *Bridge) SwitchCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.switches)
}

// handleCommand processes an inbound on/off command. The target serial is
// the last topic segment.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	serial := lastTopicSegment(topic)

	b.mu.RLock()
	sw, ok := b.switches[serial]
	b.mu.RUnlock()
	if !ok {
		b.logger.Warn("command for unknown switch", "serial", serial)
		return nil
	}

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("parsing command: %w", err)
	}

	var err error
	switch cmd.Command {
	case "on":
		err = sw.TurnOn()
	case "off":
		err = sw.TurnOff()
	default:
		return fmt.Errorf("unknown command %q", cmd.Command)
	}
	if err != nil {
		return fmt.Errorf("executing %q on %s: %w", cmd.Command, sw.ID(), err)
	}

	// Re-read so the pushed state reflects the hardware, not the intent.
	if err := sw.Refresh(); err != nil {
		b.logger.Warn("post-command refresh failed", "entity_id", sw.ID(), "error", err)
	}
	return nil
}

// lastTopicSegment returns the text after the final '/'.
func lastTopicSegment(topic string) string {
	for i := len(topic) - 1; i >= 0; i-- {
		if topic[i] == '/' {
			return topic[i+1:]
		}
	}
	return topic
}

// milliwattsPerWatt converts Insight readings for telemetry storage.
const milliwattsPerWatt = 1000.0

// pushState publishes a switch's canonical state to every outbound
// surface.
func (b *Bridge) pushState(sw *Switch) {
	msg := entity.NewStateMessage(sw)

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("failed to marshal state", "error", err)
		return
	}

	if err := b.mqtt.Publish(StateTopic(sw.ID()), payload, 1, true); err != nil {
		b.logger.Error("failed to publish state", "entity_id", sw.ID(), "error", err)
	}

	if b.hub != nil {
		b.hub.Broadcast("device.state_changed", msg)
	}

	if b.registry != nil {
		state := map[string]any{"state": msg.State.String()}
		if err := b.registry.SetDeviceState(b.ctx, sw.ID(), state); err != nil {
			b.logger.Debug("registry state update skipped",
				"entity_id", sw.ID(),
				"reason", err.Error())
		} else if err := b.registry.SetDeviceHealth(b.ctx, sw.ID(), "online"); err != nil {
			b.logger.Debug("registry health update skipped",
				"entity_id", sw.ID(),
				"reason", err.Error())
		}
	}

	if b.telemetry != nil {
		if params, ok := sw.InsightSnapshot(); ok {
			b.telemetry.WriteEnergyMetric(sw.ID(),
				float64(params.CurrentPowerMW)/milliwattsPerWatt, 0)
		}
	}
}
