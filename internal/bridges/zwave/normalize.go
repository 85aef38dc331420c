package zwave

import (
	"math"

	"github.com/hearthwave/hearthwave-core/internal/entity"
)

// Rounding precision for normalised sensor readings.
const (
	temperatureDecimals = 1
	genericDecimals     = 2
)

// Normalize converts a raw device payload into canonical state given the
// value's command class and unit. It is a pure function of its inputs.
//
// Rules:
//   - Binary class: truthy payload → On, else Off.
//   - Multilevel / decimal meter: temperature readings round to 1 decimal
//     place; other floats round to 2; integers and strings pass through.
//   - Alarm class: payload passes through as a numeric state — downstream
//     consumers interpret the alarm subtype.
//
// Classification guarantees Normalize is never called with a command class
// it cannot handle.
func Normalize(class CommandClass, data any, units string) entity.State {
	switch class {
	case CommandClassSensorBinary:
		if truthy(data) {
			return entity.On()
		}
		return entity.Off()

	case CommandClassSensorMultilevel, CommandClassMeter:
		return normalizeNumeric(data, units)

	default:
		// Alarm and any future passthrough classes.
		return entity.NumericState(data, entity.CanonicalUnit(units))
	}
}

// normalizeNumeric applies the rounding rules for multilevel readings.
func normalizeNumeric(data any, units string) entity.State {
	unit := entity.CanonicalUnit(units)

	f, isFloat := asFloat(data)
	switch {
	case isFloat && (units == "C" || units == "F"):
		return entity.NumericState(roundTo(f, temperatureDecimals), unit)
	case isFloat:
		return entity.NumericState(roundTo(f, genericDecimals), unit)
	default:
		// Integers, strings, and anything else pass through unchanged.
		return entity.NumericState(data, unit)
	}
}

// asFloat reports whether the payload is a floating-point reading.
// Integer payloads deliberately do not qualify — they pass through unrounded.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}

// truthy reports whether a raw payload counts as "active" for binary
// sensors. Mirrors the loose typing of vendor SDK payloads: booleans,
// non-zero numbers, and non-empty strings are truthy.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case uint8:
		return val != 0
	case float64:
		return val != 0
	case float32:
		return val != 0
	case string:
		return val != ""
	default:
		return false
	}
}
