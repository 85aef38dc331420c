package zwave

import (
	"time"

	"github.com/hearthwave/hearthwave-core/internal/entity"
)

// Re-arm window derivation. The window is
// configParam(reArmConfigParam) × reArmBaseSeconds, defaulting to
// 4 × 8 = 32 seconds. Re-trigger latency varies by hardware, so the
// multiplier is a per-device configuration parameter.
const (
	reArmConfigParam       = 9
	defaultReArmMultiplier = 4
	reArmBaseSeconds       = 8
)

// Clock abstracts wall-clock reads so the re-arm window can be tested
// without sleeping.
type Clock interface {
	Now() time.Time
}

// systemClock is the production Clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Scheduler defers a function call to a later time. The production
// implementation wraps time.AfterFunc; tests substitute a manual one.
//
// Scheduled calls fire at-or-after the requested delay, never before.
// There is no cancellation: superseded re-evaluations are rendered
// harmless by recomputing state live (see TriggerSensor).
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// timerScheduler is the production Scheduler.
type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// TimerScheduler returns a Scheduler backed by the runtime timer.
func TimerScheduler() Scheduler { return timerScheduler{} }

// TriggerSensor handles stateless hardware that signals "triggered" but
// never "cleared" — certain motion sensors send an On notification and no
// corresponding Off.
//
// The sensor is a two-state machine:
//
//   - Armed: steady state, canonical state Off.
//   - Triggered: canonical state On, holding an expiry timestamp.
//
// Every truthy notification moves (or keeps) the sensor in Triggered and
// extends the expiry to now + reArm; a re-evaluation is scheduled for the
// expiry instant. The re-evaluation does not transition state itself — it
// merely pushes an update, and State() recomputes live from
// (payload, expiry, now). A re-evaluation firing early because a later
// trigger extended the window is therefore a harmless no-op, which is why
// stale timers are never cancelled.
//
// Failure mode: if the host scheduler drops the deferred call, the sensor
// reads On until the next notification arrives. Accepted as degraded,
// non-fatal behaviour.
type TriggerSensor struct {
	sensor

	clock     Clock
	scheduler Scheduler

	reArm time.Duration

	// expiresAt is guarded by sensor.mu alongside data.
	expiresAt time.Time
}

// NewTriggerSensor creates a trigger sensor for the given value.
// The re-arm window is the node's configured multiplier times the base
// unit from deps (zero selects the 8-second default). Nil clock or
// scheduler deps select the production implementations.
func NewTriggerSensor(value Value, node Node, deps SensorDeps) *TriggerSensor {
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock()
	}
	scheduler := deps.Scheduler
	if scheduler == nil {
		scheduler = TimerScheduler()
	}
	base := deps.ReArmBase
	if base == 0 {
		base = reArmBaseSeconds * time.Second
	}

	multiplier := node.ConfigParam(reArmConfigParam, defaultReArmMultiplier)

	return &TriggerSensor{
		sensor:    newSensor(value, node, deps.Push),
		clock:     clock,
		scheduler: scheduler,
		reArm:     time.Duration(multiplier) * base,
	}
}

// ReArmWindow returns the configured re-arm duration.
func (s *TriggerSensor) ReArmWindow() time.Duration {
	return s.reArm
}

// State recomputes the canonical state live: On only while the latest
// payload is truthy and the expiry lies in the future.
func (s *TriggerSensor) State() entity.State {
	s.mu.RLock()
	data := s.data
	expiresAt := s.expiresAt
	s.mu.RUnlock()

	if !truthy(data) {
		return entity.Off()
	}
	if !expiresAt.IsZero() && !s.clock.Now().Before(expiresAt) {
		return entity.Off()
	}
	return entity.On()
}

// HandleNotification applies a value-change event. A truthy payload
// (re)arms the expiry window and schedules the deferred re-evaluation; a
// falsy payload — if the hardware ever sends one — reverts to Off
// immediately. Either way the update is pushed.
func (s *TriggerSensor) HandleNotification(n Notification) {
	now := s.clock.Now()

	s.mu.Lock()
	s.data = n.Data
	rearmed := false
	if truthy(n.Data) {
		// expiresAt only ever moves forward while triggers keep arriving:
		// now + reArm is strictly later than any expiry computed earlier.
		s.expiresAt = now.Add(s.reArm)
		rearmed = true
	}
	s.mu.Unlock()

	s.push(s)

	if rearmed {
		// Deferred re-evaluation at the expiry instant. Keyed to the
		// sensor, not the triggering value id, so it fires even when the
		// device reports the same physical trigger under several value
		// ids.
		s.scheduler.AfterFunc(s.reArm, s.Reevaluate)
	}
}

// Reevaluate pushes the current (live-computed) state. Invoked by the
// deferred re-arm timer; safe to call at any time since it never mutates
// state.
func (s *TriggerSensor) Reevaluate() {
	s.push(s)
}

// ExpiresAt returns the current expiry timestamp; zero before the first
// trigger.
func (s *TriggerSensor) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}
