package mqtt

import (
	"context"
	"errors"
	"testing"
)

// Broker-dependent behaviour (connect, reconnect, delivery) is covered by
// the integration tests. These tests exercise validation and bookkeeping
// that must hold without a broker.

func TestCloseNil(t *testing.T) {
	client := &Client{}
	err := client.Close()
	if err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestHealthCheckNotConnected(t *testing.T) {
	client := &Client{}

	err := client.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckCancelledContext(t *testing.T) {
	client := &Client{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.HealthCheck(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestPublishValidation(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{
			name:    "empty topic",
			topic:   "",
			payload: []byte("{}"),
			qos:     1,
			wantErr: ErrInvalidTopic,
		},
		{
			name:    "invalid qos",
			topic:   "hearthwave/state/zwave/test",
			payload: []byte("{}"),
			qos:     3,
			wantErr: ErrInvalidQoS,
		},
		{
			name:    "oversized payload",
			topic:   "hearthwave/state/zwave/test",
			payload: make([]byte, maxPayloadSize+1),
			qos:     1,
			wantErr: ErrPublishFailed,
		},
		{
			name:    "not connected",
			topic:   "hearthwave/state/zwave/test",
			payload: []byte("{}"),
			qos:     1,
			wantErr: ErrNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{
			name:    "empty topic",
			topic:   "",
			qos:     1,
			handler: handler,
			wantErr: ErrInvalidTopic,
		},
		{
			name:    "invalid qos",
			topic:   "hearthwave/command/wemo/+",
			qos:     5,
			handler: handler,
			wantErr: ErrInvalidQoS,
		},
		{
			name:    "nil handler",
			topic:   "hearthwave/command/wemo/+",
			qos:     1,
			handler: nil,
			wantErr: ErrSubscribeFailed,
		},
		{
			name:    "not connected",
			topic:   "hearthwave/command/wemo/+",
			qos:     1,
			handler: handler,
			wantErr: ErrNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(\"\") error = %v, want ErrInvalidTopic", err)
	}

	if err := client.Unsubscribe("hearthwave/state/+/+"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionBookkeeping(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if got := client.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", got)
	}

	if client.HasSubscription("hearthwave/state/+/+") {
		t.Error("HasSubscription() = true on fresh client, want false")
	}
}

// =============================================================================
// Topics Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "BridgeState",
			builder: func() string {
				return Topics{}.BridgeState("zwave", "zwave-5-sensor")
			},
			expected: "hearthwave/state/zwave/zwave-5-sensor",
		},
		{
			name: "BridgeCommand",
			builder: func() string {
				return Topics{}.BridgeCommand("wemo", "221448K1100085")
			},
			expected: "hearthwave/command/wemo/221448K1100085",
		},
		{
			name: "BridgeHealth",
			builder: func() string {
				return Topics{}.BridgeHealth("zwave")
			},
			expected: "hearthwave/health/zwave",
		},
		{
			name: "CoreDeviceState",
			builder: func() string {
				return Topics{}.CoreDeviceState("zwave-5-sensor")
			},
			expected: "hearthwave/core/device/zwave-5-sensor/state",
		},
		{
			name: "CoreEvent",
			builder: func() string {
				return Topics{}.CoreEvent("device_state_changed")
			},
			expected: "hearthwave/core/event/device_state_changed",
		},
		{
			name: "SystemStatus",
			builder: func() string {
				return Topics{}.SystemStatus()
			},
			expected: "hearthwave/system/status",
		},
		{
			name: "SystemShutdown",
			builder: func() string {
				return Topics{}.SystemShutdown()
			},
			expected: "hearthwave/system/shutdown",
		},
		{
			name: "AllBridgeStates",
			builder: func() string {
				return Topics{}.AllBridgeStates()
			},
			expected: "hearthwave/state/+/+",
		},
		{
			name: "AllBridgeCommands",
			builder: func() string {
				return Topics{}.AllBridgeCommands()
			},
			expected: "hearthwave/command/+/+",
		},
		{
			name: "AllBridgeHealth",
			builder: func() string {
				return Topics{}.AllBridgeHealth()
			},
			expected: "hearthwave/health/+",
		},
		{
			name: "AllTopics",
			builder: func() string {
				return Topics{}.AllTopics()
			},
			expected: "hearthwave/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}
