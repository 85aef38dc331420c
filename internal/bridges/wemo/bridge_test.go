package wemo

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/hearthwave/hearthwave-core/internal/entity"
)

// fakeEventSource captures handlers and records subscriptions.
type fakeEventSource struct {
	mu         sync.Mutex
	handler    func(Event)
	subscribed []string
	closed     int
}

func (f *fakeEventSource) SetOnEvent(handler func(Event)) {
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
}

func (f *fakeEventSource) Subscribe(serial string) error {
	f.mu.Lock()
	f.subscribed = append(f.subscribed, serial)
	f.mu.Unlock()
	return nil
}

func (f *fakeEventSource) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

func (f *fakeEventSource) emit(e Event) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(e)
	}
}

// mockMQTT records publishes and delivers subscribed commands.
type mockMQTT struct {
	mu        sync.Mutex
	published []mockMessage
	handlers  map[string]func(topic string, payload []byte) error
}

type mockMessage struct {
	topic   string
	payload []byte
}

func newMockMQTT() *mockMQTT {
	return &mockMQTT{handlers: make(map[string]func(string, []byte) error)}
}

func (m *mockMQTT) Publish(topic string, payload []byte, _ byte, _ bool) error {
	m.mu.Lock()
	m.published = append(m.published, mockMessage{topic, payload})
	m.mu.Unlock()
	return nil
}

func (m *mockMQTT) Subscribe(topic string, _ byte, handler func(string, []byte) error) error {
	m.mu.Lock()
	m.handlers[topic] = handler
	m.mu.Unlock()
	return nil
}

func (m *mockMQTT) deliver(topic string, payload []byte) {
	m.mu.Lock()
	h := m.handlers[CommandSubscribeTopic()]
	m.mu.Unlock()
	if h != nil {
		_ = h(topic, payload) //nolint:errcheck // Delivery errors are not asserted here
	}
}

func (m *mockMQTT) messages() []mockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockMessage(nil), m.published...)
}

// mockTelemetry records energy writes.
type mockTelemetry struct {
	mu     sync.Mutex
	writes []float64
}

func (m *mockTelemetry) WriteEnergyMetric(_ string, powerWatts float64, _ float64) {
	m.mu.Lock()
	m.writes = append(m.writes, powerWatts)
	m.mu.Unlock()
}

func TestBridgeEventTriggersRefreshAndPush(t *testing.T) {
	source := &fakeEventSource{}
	mqttClient := newMockMQTT()
	b, err := NewBridge(BridgeOptions{Source: source, MQTT: mqttClient})
	if err != nil {
		t.Fatalf("NewBridge() error = %v", err)
	}

	device := newInsightDevice()
	sw, err := b.AddDevice(context.Background(), device)
	if err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer b.Stop()

	before := len(mqttClient.messages()) // AddDevice does an initial refresh

	device.mu.Lock()
	device.on = false
	device.mu.Unlock()

	source.emit(Event{Serial: device.serial, Type: "BinaryState", Value: "0"})

	msgs := mqttClient.messages()
	if len(msgs) != before+1 {
		t.Fatalf("published = %d, want %d", len(msgs), before+1)
	}

	var msg entity.StateMessage
	if err := json.Unmarshal(msgs[len(msgs)-1].payload, &msg); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if msg.State.Kind() != entity.KindOff {
		t.Errorf("pushed state = %v, want off", msg.State.Kind())
	}
	if msg.EntityID != sw.ID() {
		t.Errorf("entity_id = %q, want %q", msg.EntityID, sw.ID())
	}
}

func TestBridgeIgnoresUnknownSerial(t *testing.T) {
	source := &fakeEventSource{}
	mqttClient := newMockMQTT()
	b, err := NewBridge(BridgeOptions{Source: source, MQTT: mqttClient})
	if err != nil {
		t.Fatalf("NewBridge() error = %v", err)
	}

	if _, err := b.AddDevice(context.Background(), newInsightDevice()); err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer b.Stop()

	before := len(mqttClient.messages())
	source.emit(Event{Serial: "some-other-device"})

	if got := len(mqttClient.messages()); got != before {
		t.Errorf("published = %d, want %d (unknown serial must be ignored)", got, before)
	}
}

func TestBridgeHandlesCommands(t *testing.T) {
	source := &fakeEventSource{}
	mqttClient := newMockMQTT()
	b, err := NewBridge(BridgeOptions{Source: source, MQTT: mqttClient})
	if err != nil {
		t.Fatalf("NewBridge() error = %v", err)
	}

	device := newInsightDevice()
	device.on = false
	if _, err := b.AddDevice(context.Background(), device); err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer b.Stop()

	payload, _ := json.Marshal(CommandMessage{Command: "on"})
	mqttClient.deliver("hearthwave/command/wemo/"+device.serial, payload)

	if device.onCalls != 1 {
		t.Errorf("On() calls = %d, want 1", device.onCalls)
	}

	payload, _ = json.Marshal(CommandMessage{Command: "off"})
	mqttClient.deliver("hearthwave/command/wemo/"+device.serial, payload)

	if device.offCalls != 1 {
		t.Errorf("Off() calls = %d, want 1", device.offCalls)
	}
}

func TestBridgeWritesPowerTelemetry(t *testing.T) {
	source := &fakeEventSource{}
	telemetry := &mockTelemetry{}
	b, err := NewBridge(BridgeOptions{Source: source, MQTT: newMockMQTT(), Telemetry: telemetry})
	if err != nil {
		t.Fatalf("NewBridge() error = %v", err)
	}

	// Insight reports 12500 mW → 12.5 W.
	if _, err := b.AddDevice(context.Background(), newInsightDevice()); err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}

	telemetry.mu.Lock()
	defer telemetry.mu.Unlock()
	if len(telemetry.writes) != 1 {
		t.Fatalf("telemetry writes = %d, want 1", len(telemetry.writes))
	}
	if telemetry.writes[0] != 12.5 {
		t.Errorf("power = %v W, want 12.5", telemetry.writes[0])
	}
}

func TestSubscriptionRegistryStopIdempotent(t *testing.T) {
	source := &fakeEventSource{}
	reg := NewSubscriptionRegistry(source)

	if err := reg.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	reg.Stop()
	reg.Stop()

	if source.closed != 1 {
		t.Errorf("Close() calls = %d, want 1", source.closed)
	}
}
