package entity

import (
	"encoding/json"
	"testing"
)

func TestStateKind(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  Kind
	}{
		{"on", On(), KindOn},
		{"off", Off(), KindOff},
		{"standby", Standby(), KindStandby},
		{"numeric", NumericState(21.3, UnitCelsius), KindNumeric},
		{"zero value is off", State{}, KindOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"on", On(), "on"},
		{"off", Off(), "off"},
		{"standby", Standby(), "standby"},
		{"numeric float", NumericState(21.3, UnitCelsius), "21.3"},
		{"numeric int", NumericState(5, "count"), "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	original := NumericState(68.0, UnitFahrenheit)

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded State
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded.Kind() != KindNumeric {
		t.Errorf("Kind() = %v, want %v", decoded.Kind(), KindNumeric)
	}
	if decoded.Unit() != UnitFahrenheit {
		t.Errorf("Unit() = %q, want %q", decoded.Unit(), UnitFahrenheit)
	}
	if v, ok := decoded.Value().(float64); !ok || v != 68.0 {
		t.Errorf("Value() = %v, want 68.0", decoded.Value())
	}
}

func TestStateJSONSymbolic(t *testing.T) {
	data, err := json.Marshal(On())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"kind":"on"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestCanonicalUnit(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"celsius", "C", "°C"},
		{"fahrenheit", "F", "°F"},
		{"lux passthrough", "lux", "lux"},
		{"watts passthrough", "W", "W"},
		{"empty passthrough", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalUnit(tt.raw); got != tt.want {
				t.Errorf("CanonicalUnit(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
