package main

import (
	"context"

	"github.com/hearthwave/hearthwave-core/internal/bridges/wemo"
	"github.com/hearthwave/hearthwave-core/internal/bridges/zwave"
	"github.com/hearthwave/hearthwave-core/internal/device"
	"github.com/hearthwave/hearthwave-core/internal/infrastructure/mqtt"
)

// The bridges depend on narrow registry interfaces with protocol-local
// seed types. These adapters translate them onto the shared
// device.Registry.

// zwaveRegistryAdapter implements zwave.DeviceRegistry.
type zwaveRegistryAdapter struct {
	registry *device.Registry
}

func (a *zwaveRegistryAdapter) CreateDeviceIfNotExists(ctx context.Context, seed zwave.DeviceSeed) error {
	return a.registry.CreateDeviceIfNotExists(ctx, &device.Device{
		ID:           seed.ID,
		Name:         seed.Name,
		Type:         device.DeviceType(seed.Type),
		Protocol:     device.Protocol(seed.Protocol),
		Address:      toAddress(seed.Address),
		Manufacturer: seed.Manufacturer,
		Model:        seed.Model,
		HealthStatus: device.HealthStatusUnknown,
	})
}

func (a *zwaveRegistryAdapter) SetDeviceState(ctx context.Context, id string, state map[string]any) error {
	return a.registry.SetDeviceState(ctx, id, device.State(state))
}

func (a *zwaveRegistryAdapter) SetDeviceHealth(ctx context.Context, id string, status string) error {
	return a.registry.SetDeviceHealth(ctx, id, device.HealthStatus(status))
}

// wemoRegistryAdapter implements wemo.DeviceRegistry.
type wemoRegistryAdapter struct {
	registry *device.Registry
}

func (a *wemoRegistryAdapter) CreateDeviceIfNotExists(ctx context.Context, seed wemo.DeviceSeed) error {
	return a.registry.CreateDeviceIfNotExists(ctx, &device.Device{
		ID:           seed.ID,
		Name:         seed.Name,
		Type:         device.DeviceType(seed.Type),
		Protocol:     device.Protocol(seed.Protocol),
		Address:      toAddress(seed.Address),
		Model:        seed.Model,
		HealthStatus: device.HealthStatusUnknown,
	})
}

func (a *wemoRegistryAdapter) SetDeviceState(ctx context.Context, id string, state map[string]any) error {
	return a.registry.SetDeviceState(ctx, id, device.State(state))
}

func (a *wemoRegistryAdapter) SetDeviceHealth(ctx context.Context, id string, status string) error {
	return a.registry.SetDeviceHealth(ctx, id, device.HealthStatus(status))
}

// wemoMQTTAdapter adapts the infrastructure MQTT client to the wemo
// bridge's MQTTClient interface: the client's Subscribe takes the named
// mqtt.MessageHandler type where the bridge declares the bare func type.
type wemoMQTTAdapter struct {
	client *mqtt.Client
}

func (a *wemoMQTTAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

func (a *wemoMQTTAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, handler)
}

// toAddress widens a bridge's string-valued address map to the registry's
// JSON address type.
func toAddress(in map[string]string) device.Address {
	if in == nil {
		return nil
	}
	out := make(device.Address, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
