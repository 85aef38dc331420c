package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hearthwave/hearthwave-core/internal/bridges/wemo"
	"github.com/hearthwave/hearthwave-core/internal/infrastructure/logging"
	"github.com/hearthwave/hearthwave-core/internal/infrastructure/mqtt"
)

// wemoSnapshot is the driver daemon's full description of one switch,
// published retained on hearthwave/driver/wemo/announce/{serial} and
// re-published on every device event.
type wemoSnapshot struct {
	Serial string `json:"serial"`
	Name   string `json:"name"`
	Model  string `json:"model"`
	State  *bool  `json:"state,omitempty"`

	Insight *struct {
		CurrentPowerMW int64  `json:"current_power_mw"`
		TodayMW        int64  `json:"today_mw"`
		State          string `json:"state"`
	} `json:"insight,omitempty"`

	Maker *struct {
		SensorState int `json:"sensor_state"`
		SwitchMode  int `json:"switch_mode"`
		HasSensor   int `json:"has_sensor"`
	} `json:"maker,omitempty"`
}

// wemoFeed adapts the driver daemon's MQTT topics to the bridge's
// EventSource interface. The first snapshot for a serial materialises a
// device handle and registers it; subsequent snapshots update the handle
// and emit a refresh event.
type wemoFeed struct {
	mqtt *mqtt.Client
	log  *logging.Logger

	mu      sync.Mutex
	handler func(wemo.Event)
	devices map[string]*wemoDriverDevice
	bridge  *wemo.Bridge
}

func newWemoFeed(client *mqtt.Client, log *logging.Logger) *wemoFeed {
	return &wemoFeed{
		mqtt:    client,
		log:     log,
		devices: make(map[string]*wemoDriverDevice),
	}
}

// SetOnEvent implements wemo.EventSource.
func (f *wemoFeed) SetOnEvent(handler func(wemo.Event)) {
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
}

// Subscribe implements wemo.EventSource. The driver daemon pushes
// snapshots unconditionally, so there is nothing to establish per device.
func (f *wemoFeed) Subscribe(string) error {
	return nil
}

// Close implements wemo.EventSource.
func (f *wemoFeed) Close() error {
	return f.mqtt.Unsubscribe(mqtt.Topics{}.AllDriverAnnouncements("wemo"))
}

// Start subscribes to the driver daemon's snapshot topic. The bridge must
// already be started so that events land in a live subscription registry.
func (f *wemoFeed) Start(ctx context.Context, bridge *wemo.Bridge) error {
	f.mu.Lock()
	f.bridge = bridge
	f.mu.Unlock()

	err := f.mqtt.Subscribe(mqtt.Topics{}.AllDriverAnnouncements("wemo"), 1, func(topic string, payload []byte) error {
		return f.handleSnapshot(ctx, payload)
	})
	if err != nil {
		return fmt.Errorf("subscribing to snapshots: %w", err)
	}
	return nil
}

// handleSnapshot applies a driver snapshot. New serials are added to the
// bridge; known serials get a refresh event so the switch re-reads the
// updated handle.
func (f *wemoFeed) handleSnapshot(ctx context.Context, payload []byte) error {
	var snap wemoSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}
	if snap.Serial == "" {
		return fmt.Errorf("snapshot missing serial")
	}

	f.mu.Lock()
	dev, known := f.devices[snap.Serial]
	if !known {
		dev = &wemoDriverDevice{
			mqtt:   f.mqtt,
			serial: snap.Serial,
			name:   snap.Name,
			model:  snap.Model,
		}
		f.devices[snap.Serial] = dev
	}
	bridge := f.bridge
	handler := f.handler
	f.mu.Unlock()

	dev.apply(snap)

	if !known {
		if _, err := bridge.AddDevice(ctx, dev); err != nil {
			return fmt.Errorf("adding %s: %w", snap.Serial, err)
		}
		return nil
	}

	if handler != nil {
		handler(wemo.Event{Serial: snap.Serial, Type: "snapshot"})
	}
	return nil
}

// wemoDriverDevice implements wemo.Device over driver daemon snapshots.
// Reads serve the last applied snapshot; relay commands are published to
// the daemon, which actuates the hardware and answers with a fresh
// snapshot.
type wemoDriverDevice struct {
	mqtt *mqtt.Client

	serial string
	name   string
	model  string

	mu         sync.RWMutex
	state      bool
	stateKnown bool
	insight    *wemo.InsightParams
	maker      *wemo.MakerParams
}

// apply folds a snapshot into the handle. Absent sections keep their
// previous values.
func (d *wemoDriverDevice) apply(snap wemoSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if snap.Name != "" {
		d.name = snap.Name
	}
	if snap.State != nil {
		d.state = *snap.State
		d.stateKnown = true
	}
	if snap.Insight != nil {
		d.insight = &wemo.InsightParams{
			CurrentPowerMW: snap.Insight.CurrentPowerMW,
			TodayMW:        snap.Insight.TodayMW,
			State:          snap.Insight.State,
		}
	}
	if snap.Maker != nil {
		d.maker = &wemo.MakerParams{
			SensorState: snap.Maker.SensorState,
			SwitchMode:  snap.Maker.SwitchMode,
			HasSensor:   snap.Maker.HasSensor,
		}
	}
}

func (d *wemoDriverDevice) SerialNumber() string {
	return d.serial
}

func (d *wemoDriverDevice) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

func (d *wemoDriverDevice) ModelName() string {
	return d.model
}

// GetState returns the last reported relay state. The daemon owns the
// hardware round-trip, so force has no local meaning.
func (d *wemoDriverDevice) GetState(_ bool) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.stateKnown {
		return false, fmt.Errorf("wemo %s: no state reported yet", d.serial)
	}
	return d.state, nil
}

func (d *wemoDriverDevice) On() error {
	return d.relay("on")
}

func (d *wemoDriverDevice) Off() error {
	return d.relay("off")
}

func (d *wemoDriverDevice) relay(command string) error {
	payload, err := json.Marshal(map[string]string{"command": command})
	if err != nil {
		return fmt.Errorf("encoding relay command: %w", err)
	}
	return d.mqtt.Publish(mqtt.Topics{}.DriverSet("wemo", d.serial), payload, 1, false)
}

func (d *wemoDriverDevice) InsightParams() (wemo.InsightParams, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.insight == nil {
		return wemo.InsightParams{}, wemo.ErrParamsUnavailable
	}
	return *d.insight, nil
}

func (d *wemoDriverDevice) MakerParams() (wemo.MakerParams, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.maker == nil {
		return wemo.MakerParams{}, wemo.ErrParamsUnavailable
	}
	return *d.maker, nil
}
