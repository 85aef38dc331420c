package zwave

import (
	"context"
	"sync"
	"testing"

	"github.com/hearthwave/hearthwave-core/internal/entity"
)

// fakeSource captures the dispatch handler so tests can inject
// notifications directly.
type fakeSource struct {
	mu      sync.Mutex
	handler func(Notification)
}

func (f *fakeSource) SetOnValueChanged(handler func(Notification)) {
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
}

func (f *fakeSource) emit(n Notification) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(n)
	}
}

func TestSubscriptionsRouting(t *testing.T) {
	source := &fakeSource{}
	subs := NewSubscriptions(source)

	a := NewBinarySensor(Value{ID: "v-a", CommandClass: CommandClassSensorBinary}, testNode(), nil)
	b := NewBinarySensor(Value{ID: "v-b", CommandClass: CommandClassSensorBinary}, testNode(), nil)
	subs.Register(a)
	subs.Register(b)

	if err := subs.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	source.emit(Notification{ValueID: "v-a", Data: true})

	if a.State().Kind() != entity.KindOn {
		t.Errorf("sensor a state = %v, want on", a.State().Kind())
	}
	if b.State().Kind() != entity.KindOff {
		t.Errorf("sensor b state = %v, want off (must not cross-update)", b.State().Kind())
	}
}

func TestSubscriptionsIgnoresUnknownValueID(t *testing.T) {
	// Broadcast notifications for values nobody registered are expected
	// traffic, dropped without error.
	source := &fakeSource{}
	subs := NewSubscriptions(source)

	s := NewBinarySensor(Value{ID: "v-a", CommandClass: CommandClassSensorBinary}, testNode(), nil)
	subs.Register(s)

	if err := subs.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	source.emit(Notification{ValueID: "v-unknown", Data: true})

	if s.State().Kind() != entity.KindOff {
		t.Errorf("state = %v, want off", s.State().Kind())
	}
}

func TestSubscriptionsRegisterDeduplicates(t *testing.T) {
	subs := NewSubscriptions(&fakeSource{})
	s := NewBinarySensor(Value{ID: "v-a", CommandClass: CommandClassSensorBinary}, testNode(), nil)

	subs.Register(s)
	subs.Register(s)

	if got := subs.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestSubscriptionsStopDropsNotifications(t *testing.T) {
	source := &fakeSource{}
	subs := NewSubscriptions(source)

	s := NewBinarySensor(Value{ID: "v-a", CommandClass: CommandClassSensorBinary}, testNode(), nil)
	subs.Register(s)

	if err := subs.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	subs.Stop()
	subs.Stop() // idempotent

	source.emit(Notification{ValueID: "v-a", Data: true})

	if s.State().Kind() != entity.KindOff {
		t.Errorf("state after Stop = %v, want off", s.State().Kind())
	}
}

func TestSubscriptionsConcurrentIsolation(t *testing.T) {
	// Concurrent notifications for two distinct value identities must
	// never cross-update each other's sensor.
	source := &fakeSource{}
	subs := NewSubscriptions(source)

	a := NewBinarySensor(Value{ID: "v-a", CommandClass: CommandClassSensorBinary}, testNode(), nil)
	b := NewBinarySensor(Value{ID: "v-b", CommandClass: CommandClassSensorBinary}, testNode(), nil)
	subs.Register(a)
	subs.Register(b)

	if err := subs.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	const rounds = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			source.emit(Notification{ValueID: "v-a", Data: true})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			source.emit(Notification{ValueID: "v-b", Data: false})
		}
	}()
	wg.Wait()

	if a.State().Kind() != entity.KindOn {
		t.Errorf("sensor a state = %v, want on", a.State().Kind())
	}
	if b.State().Kind() != entity.KindOff {
		t.Errorf("sensor b state = %v, want off", b.State().Kind())
	}
}
