package zwave

import (
	"context"
	"sync"
)

// Subscriptions routes value-change notifications from the notification
// source to registered sensors.
//
// It is constructed explicitly by the composition root and passed by
// reference — there is no package-level instance. Lifecycle is a scoped
// acquisition: Start once, Stop exactly once on shutdown.
//
// Routing matches the notification's value ID against registered sensors.
// Notifications for unregistered value IDs are silently dropped — the
// source broadcasts every change on the network, and most subscribers must
// filter.
type Subscriptions struct {
	source NotificationSource

	mu      sync.RWMutex
	sensors map[string][]Sensor // value ID → sensors

	started  bool
	startMu  sync.Mutex
	stopOnce sync.Once
	done     chan struct{}

	logger Logger
}

// NewSubscriptions creates a subscription registry for the given source.
func NewSubscriptions(source NotificationSource) *Subscriptions {
	return &Subscriptions{
		source:  source,
		sensors: make(map[string][]Sensor),
		done:    make(chan struct{}),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Subscriptions) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Register subscribes a sensor to notifications matching its value ID.
// Registering the same sensor twice is a no-op. Entries live until Stop;
// sensors are not removed mid-life in steady state.
func (r *Subscriptions) Register(s Sensor) {
	if s == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sensors[s.ValueID()] {
		if existing == s {
			return
		}
	}
	r.sensors[s.ValueID()] = append(r.sensors[s.ValueID()], s)

	r.logger.Debug("sensor registered",
		"entity_id", s.ID(),
		"value_id", s.ValueID())
}

// Start attaches the dispatch handler to the notification source.
// Idempotent; the context is accepted for symmetry with other components
// but dispatch runs on the source's delivery goroutine.
func (r *Subscriptions) Start(_ context.Context) error {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	if r.started {
		return nil
	}
	r.source.SetOnValueChanged(r.dispatch)
	r.started = true

	r.logger.Info("zwave subscriptions started")
	return nil
}

// Stop halts dispatching. Safe to call more than once; notifications
// arriving after Stop are dropped.
func (r *Subscriptions) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.logger.Info("zwave subscriptions stopped")
	})
}

// Count returns the number of registered sensors.
func (r *Subscriptions) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, list := range r.sensors {
		n += len(list)
	}
	return n
}

// dispatch routes one notification. Runs on the source's delivery
// goroutine; must stay cheap and must not block.
func (r *Subscriptions) dispatch(n Notification) {
	select {
	case <-r.done:
		return
	default:
	}

	r.mu.RLock()
	matched := r.sensors[n.ValueID]
	r.mu.RUnlock()

	// Identity mismatch is normal broadcast behaviour, not an error.
	for _, s := range matched {
		s.HandleNotification(n)
	}
}
