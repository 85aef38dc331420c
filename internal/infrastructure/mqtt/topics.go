package mqtt

import "fmt"

// Topic prefixes for the Hearthwave MQTT bus.
//
// All bridge topics use the flat scheme: hearthwave/{category}/{protocol}/{address}
// This matches the Z-Wave and WeMo bridges and all runtime subscribers.
const (
	// TopicPrefixBridge is the base for all bridge topics.
	// Flat scheme: hearthwave/{category}/{protocol}/{address_or_id}
	TopicPrefixBridge = "hearthwave"

	// TopicPrefixCore is the base for all core topics.
	TopicPrefixCore = "hearthwave/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "hearthwave/system"
)

// Topics provides builders for Hearthwave MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.BridgeState("zwave", "zwave-5-sensor")
//	// Returns: "hearthwave/state/zwave/zwave-5-sensor"
type Topics struct{}

// BridgeState returns the topic for entity state updates from a bridge.
//
// Example: hearthwave/state/zwave/zwave-5-sensor
func (Topics) BridgeState(protocol, address string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefixBridge, protocol, address)
}

// BridgeCommand returns the topic for commands to a bridge.
//
// Example: hearthwave/command/wemo/221448K1100085
func (Topics) BridgeCommand(protocol, address string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefixBridge, protocol, address)
}

// BridgeHealth returns the topic for bridge health status.
//
// Example: hearthwave/health/zwave
func (Topics) BridgeHealth(protocol string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefixBridge, protocol)
}

// CoreDeviceState returns the canonical device state topic.
// This is the authoritative state published by Core after processing bridge updates.
//
// Example: hearthwave/core/device/zwave-5-sensor/state
func (Topics) CoreDeviceState(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/state", TopicPrefixCore, deviceID)
}

// CoreEvent returns the topic for system events.
//
// Example: hearthwave/core/event/device_state_changed
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// SystemStatus returns the system status topic.
//
// Example: hearthwave/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: hearthwave/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// DriverAnnounce returns the topic on which a protocol driver daemon
// announces a discovered endpoint. Announcements are published retained so
// Core picks them up on restart.
//
// Example: hearthwave/driver/zwave/announce/72057594093060096
func (Topics) DriverAnnounce(protocol, id string) string {
	return fmt.Sprintf("%s/driver/%s/announce/%s", TopicPrefixBridge, protocol, id)
}

// AllDriverAnnouncements returns a pattern matching every announcement
// from one protocol's driver daemon.
//
// Pattern: hearthwave/driver/zwave/announce/+
func (Topics) AllDriverAnnouncements(protocol string) string {
	return fmt.Sprintf("%s/driver/%s/announce/+", TopicPrefixBridge, protocol)
}

// DriverEvent returns the topic a driver daemon publishes runtime events on.
//
// Example: hearthwave/driver/zwave/event
func (Topics) DriverEvent(protocol string) string {
	return fmt.Sprintf("%s/driver/%s/event", TopicPrefixBridge, protocol)
}

// DriverSet returns the topic for actuation requests to a driver daemon.
//
// Example: hearthwave/driver/wemo/set/221448K1100085
func (Topics) DriverSet(protocol, address string) string {
	return fmt.Sprintf("%s/driver/%s/set/%s", TopicPrefixBridge, protocol, address)
}

// AllBridgeStates returns a pattern matching all bridge state updates.
//
// Pattern: hearthwave/state/+/+
func (Topics) AllBridgeStates() string {
	return fmt.Sprintf("%s/state/+/+", TopicPrefixBridge)
}

// AllBridgeCommands returns a pattern matching all commands to bridges.
//
// Pattern: hearthwave/command/+/+
func (Topics) AllBridgeCommands() string {
	return fmt.Sprintf("%s/command/+/+", TopicPrefixBridge)
}

// AllBridgeHealth returns a pattern matching all bridge health updates.
//
// Pattern: hearthwave/health/+
func (Topics) AllBridgeHealth() string {
	return fmt.Sprintf("%s/health/+", TopicPrefixBridge)
}

// AllTopics returns a pattern matching all Hearthwave topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: hearthwave/#
func (Topics) AllTopics() string {
	return "hearthwave/#"
}
