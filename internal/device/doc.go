// Package device provides the device registry for Hearthwave.
//
// The registry is the central catalogue of every entity bridged into the
// system: Z-Wave sensors, WeMo switches, and anything announced over MQTT.
// Protocol bridges register devices on discovery and push state and health
// updates; the REST API and WebSocket hub read from it.
//
// # Key Types
//
//   - Device: a bridged entity with protocol address, JSON state, and health
//   - Protocol: how the device is reached (zwave, wemo, mqtt)
//   - DeviceType: classification (binary_sensor, trigger_sensor, insight_switch, ...)
//   - Repository: persistence interface with a SQLite implementation
//   - Registry: cached, thread-safe facade over a Repository
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db)
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	// Load devices into cache on startup
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	// Bridges register devices idempotently on discovery
//	dev := &device.Device{
//	    ID:       "zwave-5-sensor",
//	    Name:     "Hallway Motion",
//	    Type:     device.DeviceTypeTriggerSensor,
//	    Protocol: device.ProtocolZWave,
//	    Address:  device.Address{"node_id": 5, "value_index": 0},
//	}
//	if err := registry.CreateDeviceIfNotExists(ctx, dev); err != nil {
//	    return err
//	}
//
//	// State updates merge into the existing state document
//	registry.SetDeviceState(ctx, "zwave-5-sensor", device.State{"state": "on"})
//
// # Thread Safety
//
// The Registry is safe for concurrent use. All operations are protected by
// a read-write mutex, and every device handed out is a deep copy of the
// cached one. The Repository implementation must also be thread-safe.
package device
