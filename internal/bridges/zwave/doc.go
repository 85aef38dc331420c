// Package zwave implements the Z-Wave sensor bridge for Hearthwave Core.
//
// This package listens to asynchronous value-change notifications from a
// Z-Wave network controller and translates them into canonical entity state.
//
// # Architecture
//
// The bridge sits between the vendor notification source and the platform:
//
//	┌──────────────┐  notifications  ┌──────────────┐  canonical state  ┌──────────┐
//	│ Z-Wave       │────────────────►│ zwave bridge │──────────────────►│ MQTT /   │
//	│ controller   │                 │ (this pkg)   │                   │ registry │
//	└──────────────┘                 └──────────────┘                   └──────────┘
//
// # Key Responsibilities
//
//   - Classify discovered values into sensor variants by command class
//   - Normalise raw payloads into canonical On/Off/Numeric state
//   - Apply per-device timing workarounds for trigger-only sensors that
//     never send an explicit "off" event
//   - Route notifications to the owning sensor and push state updates
//
// # Trigger-Only Sensors
//
// Some hardware (certain motion sensors) reports "triggered" but never
// "cleared". For those devices the bridge synthesises the off transition:
// every trigger extends an expiry timestamp, and a deferred re-evaluation
// reverts the state to off once the window lapses. See TriggerSensor.
//
// # Thread Safety
//
// All exported types are safe for concurrent use. Notification handling for
// a single sensor is serialised by the notification source; sensors for
// distinct devices may be updated concurrently.
package zwave
