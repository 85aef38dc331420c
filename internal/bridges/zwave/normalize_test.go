package zwave

import (
	"testing"

	"github.com/hearthwave/hearthwave-core/internal/entity"
)

func TestNormalizeBinary(t *testing.T) {
	tests := []struct {
		name string
		data any
		want entity.Kind
	}{
		{"bool true", true, entity.KindOn},
		{"bool false", false, entity.KindOff},
		{"non-zero int", 1, entity.KindOn},
		{"zero int", 0, entity.KindOff},
		{"non-zero float", 255.0, entity.KindOn},
		{"non-empty string", "motion", entity.KindOn},
		{"empty string", "", entity.KindOff},
		{"nil", nil, entity.KindOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(CommandClassSensorBinary, tt.data, "")
			if got.Kind() != tt.want {
				t.Errorf("Normalize() = %v, want %v", got.Kind(), tt.want)
			}
		})
	}
}

func TestNormalizeBinaryDeterministic(t *testing.T) {
	// Pure function: same inputs, same output, no hidden state.
	for i := 0; i < 3; i++ {
		if got := Normalize(CommandClassSensorBinary, true, ""); !got.IsOn() {
			t.Fatalf("call %d: Normalize() = %v, want on", i, got)
		}
	}
}

func TestNormalizeMultilevel(t *testing.T) {
	tests := []struct {
		name      string
		data      any
		units     string
		wantValue any
		wantUnit  string
	}{
		{"celsius rounds to 1dp", 21.266, "C", 21.3, "°C"},
		{"fahrenheit rounds to 1dp", 68.04, "F", 68.0, "°F"},
		{"non-temperature float rounds to 2dp", 3.14159, "lux", 3.14, "lux"},
		{"integer passes through", 5, "count", 5, "count"},
		{"string passes through", "idle", "", "idle", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(CommandClassSensorMultilevel, tt.data, tt.units)
			if got.Kind() != entity.KindNumeric {
				t.Fatalf("Kind() = %v, want numeric", got.Kind())
			}
			if got.Value() != tt.wantValue {
				t.Errorf("Value() = %v, want %v", got.Value(), tt.wantValue)
			}
			if got.Unit() != tt.wantUnit {
				t.Errorf("Unit() = %q, want %q", got.Unit(), tt.wantUnit)
			}
		})
	}
}

func TestNormalizeMeterDecimal(t *testing.T) {
	got := Normalize(CommandClassMeter, 12.3456, "W")
	if got.Value() != 12.35 {
		t.Errorf("Value() = %v, want 12.35", got.Value())
	}
}

func TestNormalizeAlarmPassthrough(t *testing.T) {
	// Alarm payloads carry subtype semantics this layer must not touch.
	got := Normalize(CommandClassAlarm, 22, "")
	if got.Kind() != entity.KindNumeric {
		t.Fatalf("Kind() = %v, want numeric", got.Kind())
	}
	if got.Value() != 22 {
		t.Errorf("Value() = %v, want 22", got.Value())
	}
}
