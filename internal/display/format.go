// Package display provides pure formatting helpers shared by the dashboard
// view-model and the configuration widgets: precision rounding, range
// clamping, and human-readable display strings.
package display

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RoundTo rounds value to the given number of decimal places.
// Negative precision is treated as zero.
func RoundTo(value float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	factor := math.Pow(10, float64(precision))
	return math.Round(value*factor) / factor
}

// Clamp limits value to the inclusive range [min, max].
// If min > max the bounds are swapped first.
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// PrecisionFromStep derives a display precision (number of decimal places)
// from a step value. A step of 0.5 yields 1, 0.25 yields 2, 1 yields 0.
// Steps that cannot be represented cleanly are capped at 6 places.
func PrecisionFromStep(step float64) int {
	if step <= 0 {
		return 0
	}
	s := strconv.FormatFloat(step, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	prec := len(s) - dot - 1
	if prec > 6 {
		prec = 6
	}
	return prec
}

// FormatNumber renders a numeric value fixed to the given precision, with an
// optional unit suffix. The unit is separated by a space except for the
// degree units, which attach directly ("58°C", "21.5 kW").
func FormatNumber(value float64, precision int, unit string) string {
	if precision < 0 {
		precision = 0
	}
	s := strconv.FormatFloat(value, 'f', precision, 64)
	if unit == "" {
		return s
	}
	if strings.HasPrefix(unit, "°") {
		return s + unit
	}
	return s + " " + unit
}

// FormatOnOff renders a boolean actuator state.
func FormatOnOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// FormatReading renders a possibly-absent sensor reading. Nil readings
// (sensor disconnected or not yet sampled) render as a placeholder dash.
func FormatReading(value *float64, precision int, unit string) string {
	if value == nil {
		return "--"
	}
	return FormatNumber(*value, precision, unit)
}

// FormatPercent renders a 0-100 value with a percent sign.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.0f%%", Clamp(value, 0, 100))
}
