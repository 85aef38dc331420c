package wemo

import (
	"context"
	"sync"
)

// Event is a push notification from a WeMo device's UPnP subscription.
// The payload is opaque to the bridge — receipt alone triggers a refresh.
type Event struct {
	Serial string
	Type   string
	Value  string
}

// EventSource is the external mechanism delivering subscription events.
// Implementations own the HTTP callback server the devices notify.
type EventSource interface {
	// SetOnEvent registers the handler invoked for every device event.
	SetOnEvent(handler func(Event))

	// Subscribe establishes the UPnP subscription for a device.
	Subscribe(serial string) error

	// Close tears down all subscriptions and the callback listener.
	Close() error
}

// SubscriptionRegistry de-duplicates and routes WeMo subscription events
// to registered handlers.
//
// It is constructed explicitly by the composition root — there is no
// package-level instance. Start attaches to the event source; Stop tears
// everything down exactly once. Events for unregistered serials are
// silently dropped.
type SubscriptionRegistry struct {
	source EventSource

	mu       sync.RWMutex
	handlers map[string][]func(Event) // serial → handlers

	started  bool
	startMu  sync.Mutex
	stopOnce sync.Once
	done     chan struct{}

	logger Logger
}

// NewSubscriptionRegistry creates a registry for the given event source.
func NewSubscriptionRegistry(source EventSource) *SubscriptionRegistry {
	return &SubscriptionRegistry{
		source:   source,
		handlers: make(map[string][]func(Event)),
		done:     make(chan struct{}),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *SubscriptionRegistry) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Register establishes the device's UPnP subscription. Safe to call for
// the same device more than once.
func (r *SubscriptionRegistry) Register(device Device) error {
	if err := r.source.Subscribe(device.SerialNumber()); err != nil {
		return err
	}
	r.logger.Debug("wemo device registered", "serial", device.SerialNumber())
	return nil
}

// On attaches a handler for events from the given serial.
func (r *SubscriptionRegistry) On(serial string, handler func(Event)) {
	if handler == nil {
		return
	}
	r.mu.Lock()
	r.handlers[serial] = append(r.handlers[serial], handler)
	r.mu.Unlock()
}

// Start begins dispatching events. Idempotent.
func (r *SubscriptionRegistry) Start(_ context.Context) error {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	if r.started {
		return nil
	}
	r.source.SetOnEvent(r.dispatch)
	r.started = true

	r.logger.Info("wemo subscriptions started")
	return nil
}

// Stop shuts down subscriptions and the delivery mechanism.
// Safe to call more than once.
func (r *SubscriptionRegistry) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		if err := r.source.Close(); err != nil {
			r.logger.Warn("error closing wemo event source", "error", err)
		}
		r.logger.Info("wemo subscriptions stopped")
	})
}

// dispatch routes one event. Runs on the source's delivery goroutine.
func (r *SubscriptionRegistry) dispatch(e Event) {
	select {
	case <-r.done:
		return
	default:
	}

	r.mu.RLock()
	matched := r.handlers[e.Serial]
	r.mu.RUnlock()

	// Unknown serials are expected broadcast traffic, not an error.
	for _, h := range matched {
		h(e)
	}
}
