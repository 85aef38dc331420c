package wemo

import (
	"fmt"
	"sync"

	"github.com/hearthwave/hearthwave-core/internal/entity"
)

// Switch adapts a WeMo device to the canonical entity model.
//
// State is derived from the relay plus, for Insight models, the standby
// mode: Off when the relay is off, Standby when powered but the load is
// idle, On otherwise.
//
// The Insight and Maker snapshots are nil until the first successful
// refresh. Attributes derived from a nil snapshot are omitted, never
// reported as stale defaults.
type Switch struct {
	device Device

	mu      sync.RWMutex
	on      bool
	insight *InsightParams
	maker   *MakerParams

	// push reports a state change to the bridge. Never nil.
	push func(*Switch)

	logger Logger
}

// NewSwitch wraps a WeMo device. push is invoked after every refresh.
func NewSwitch(device Device, push func(*Switch), logger Logger) *Switch {
	if push == nil {
		push = func(*Switch) {}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Switch{device: device, push: push, logger: logger}
}

// ID returns the platform-unique entity identifier.
func (s *Switch) ID() string {
	return fmt.Sprintf("wemo-%s", s.device.SerialNumber())
}

// Name returns the user-assigned device name.
func (s *Switch) Name() string {
	return s.device.Name()
}

// Unit returns "" — switches have no unit of measurement.
func (s *Switch) Unit() string { return "" }

// State returns the canonical Off/Standby/On state.
func (s *Switch) State() entity.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.on {
		return entity.Off()
	}
	if s.insight != nil && s.insight.State != insightStateOff && s.insight.State != insightStateOn {
		return entity.Standby()
	}
	return entity.On()
}

// Attributes returns the switch attribute map. Telemetry-derived fields
// appear only after their snapshot's first successful refresh.
func (s *Switch) Attributes() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attrs := make(map[string]any)
	if s.insight != nil {
		attrs[entity.AttrCurrentPowerMWH] = s.insight.CurrentPowerMW
		attrs[entity.AttrTodayPowerMW] = s.insight.TodayMW
	}
	if s.maker != nil {
		attrs[entity.AttrSwitchMode] = s.maker.SwitchMode
		attrs[entity.AttrHasSensor] = s.maker.HasSensor != 0
		if s.maker.HasSensor != 0 {
			// Raw 1 matches the WeMo app's "not triggered".
			if s.maker.SensorState != 0 {
				attrs[entity.AttrSensorState] = "off"
			} else {
				attrs[entity.AttrSensorState] = "on"
			}
		}
	}
	return attrs
}

// TurnOn switches the relay on.
func (s *Switch) TurnOn() error {
	if err := s.device.On(); err != nil {
		return fmt.Errorf("turning on %s: %w", s.ID(), err)
	}
	return nil
}

// TurnOff switches the relay off.
func (s *Switch) TurnOff() error {
	if err := s.device.Off(); err != nil {
		return fmt.Errorf("turning off %s: %w", s.ID(), err)
	}
	return nil
}

// Refresh re-reads the relay state and the model-specific telemetry
// snapshot, then pushes the update. Telemetry failures degrade gracefully:
// the previous snapshot is retained and a warning is logged. Only a failed
// relay read is an error.
func (s *Switch) Refresh() error {
	on, err := s.device.GetState(true)
	if err != nil {
		return fmt.Errorf("reading state of %s: %w", s.ID(), err)
	}

	s.mu.Lock()
	s.on = on
	switch s.device.ModelName() {
	case ModelInsight:
		if params, paramsErr := s.device.InsightParams(); paramsErr != nil {
			s.logger.Warn("could not update insight params",
				"entity_id", s.ID(),
				"error", paramsErr)
		} else {
			s.insight = &params
		}
	case ModelMaker:
		if params, paramsErr := s.device.MakerParams(); paramsErr != nil {
			s.logger.Warn("could not update maker params",
				"entity_id", s.ID(),
				"error", paramsErr)
		} else {
			s.maker = &params
		}
	}
	s.mu.Unlock()

	s.push(s)
	return nil
}

// InsightSnapshot returns the current power telemetry, or (zero, false)
// before the first successful refresh.
func (s *Switch) InsightSnapshot() (InsightParams, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.insight == nil {
		return InsightParams{}, false
	}
	return *s.insight, true
}
