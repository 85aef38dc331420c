// Package wemo implements the WeMo switch bridge for Hearthwave Core.
//
// WeMo devices push state-change events over UPnP subscriptions. This
// package receives those events through a subscription registry, refreshes
// the device's state and model-specific telemetry, and exposes a canonical
// Off/Standby/On switch entity to the platform.
//
// # Telemetry Snapshots
//
// Insight switches report power metering (current draw, today's total) and
// Maker switches report an attached sensor and switch mode. Both are
// best-effort snapshots refreshed on every update: until the first
// successful refresh the corresponding attributes are absent, and a failed
// refresh keeps the previous snapshot rather than clearing it.
//
// # Lifecycle
//
// The SubscriptionRegistry is constructed by the composition root, started
// once, and stopped exactly once on shutdown. Devices register when
// discovered and stay registered for the life of the process.
package wemo
