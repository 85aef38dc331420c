package entity

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the State variants.
type Kind string

// State variant kinds.
const (
	KindOff     Kind = "off"
	KindOn      Kind = "on"
	KindStandby Kind = "standby"
	KindNumeric Kind = "numeric"
)

// Canonical unit names for temperature measurements.
// Vendor SDKs report bare "C"/"F"; the platform uses the degree symbol form.
const (
	UnitCelsius    = "°C"
	UnitFahrenheit = "°F"
)

// State is the canonical device state exposed to the host platform,
// independent of vendor payload format.
//
// Exactly one of the variant constructors should be used; the zero value
// is an Off state.
type State struct {
	kind  Kind
	value any    // Set only for Numeric
	unit  string // Set only for Numeric, may be empty
}

// Off returns the Off state.
func Off() State { return State{kind: KindOff} }

// On returns the On state.
func On() State { return State{kind: KindOn} }

// Standby returns the Standby state (powered but idle).
func Standby() State { return State{kind: KindStandby} }

// NumericState returns a Numeric state carrying a measurement value and its
// unit. The value is typically float64 or int but may be any scalar the
// vendor SDK delivered (normalization decides rounding, not this type).
func NumericState(value any, unit string) State {
	return State{kind: KindNumeric, value: value, unit: unit}
}

// Kind returns the variant discriminator.
// The zero State reports KindOff.
func (s State) Kind() Kind {
	if s.kind == "" {
		return KindOff
	}
	return s.kind
}

// IsOn reports whether the state is the On variant.
func (s State) IsOn() bool { return s.kind == KindOn }

// Value returns the measurement value for Numeric states, or nil.
func (s State) Value() any { return s.value }

// Unit returns the unit of measurement for Numeric states, or "".
func (s State) Unit() string { return s.unit }

// String renders the state for logging and the wire.
// Numeric states render their value; symbolic states render their kind.
func (s State) String() string {
	if s.Kind() == KindNumeric {
		return fmt.Sprintf("%v", s.value)
	}
	return string(s.Kind())
}

// stateJSON is the wire representation of a State.
type stateJSON struct {
	Kind  Kind   `json:"kind"`
	Value any    `json:"value,omitempty"`
	Unit  string `json:"unit,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{Kind: s.Kind(), Value: s.value, Unit: s.unit})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding state: %w", err)
	}
	s.kind = raw.Kind
	s.value = raw.Value
	s.unit = raw.Unit
	return nil
}

// CanonicalUnit maps a vendor unit symbol to the platform's canonical name.
// Temperature symbols get the degree form; everything else passes through
// unchanged (lux, W, counts, ...).
func CanonicalUnit(raw string) string {
	switch raw {
	case "C":
		return UnitCelsius
	case "F":
		return UnitFahrenheit
	default:
		return raw
	}
}
