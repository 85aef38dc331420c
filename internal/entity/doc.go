// Package entity defines the canonical state model shared by all protocol
// bridges in Hearthwave Core.
//
// Vendor SDKs report device state in wildly different shapes — a Z-Wave
// multilevel sensor delivers a raw float with a vendor unit string, a WeMo
// Insight reports an opaque numeric mode. This package is the single place
// those shapes converge: every bridge produces an entity.State and a flat
// attributes map, and everything downstream (MQTT, the device registry, the
// WebSocket stream) consumes only that.
//
// # State Variants
//
// State is a closed tagged variant:
//
//   - Off: the device is inactive
//   - On: the device is active
//   - Standby: powered but idle (WeMo Insight)
//   - Numeric: a measurement with an optional unit (sensors)
//
// States are derived, never stored authoritatively — bridges recompute them
// from the latest raw payload on every change.
//
// # Thread Safety
//
// State values are immutable after construction and safe to share across
// goroutines.
package entity
