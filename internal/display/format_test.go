package display

import (
	"testing"
)

func TestRoundTo(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		precision int
		want      float64
	}{
		{"round down", 58.34, 0, 58},
		{"round up", 58.66, 0, 59},
		{"half up", 58.5, 0, 59},
		{"one place", 58.34, 1, 58.3},
		{"two places", 58.345, 2, 58.35},
		{"negative precision treated as zero", 58.34, -1, 58},
		{"negative value", -1.25, 1, -1.2},
		{"already exact", 63, 1, 63},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundTo(tt.value, tt.precision); got != tt.want {
				t.Errorf("RoundTo(%v, %d) = %v, want %v", tt.value, tt.precision, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name            string
		value, min, max float64
		want            float64
	}{
		{"inside range", 50, 10, 80, 50},
		{"below min", 5, 10, 80, 10},
		{"above max", 95, 10, 80, 80},
		{"at min", 10, 10, 80, 10},
		{"at max", 80, 10, 80, 80},
		{"swapped bounds", 95, 80, 10, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.value, tt.min, tt.max); got != tt.want {
				t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.value, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestPrecisionFromStep(t *testing.T) {
	tests := []struct {
		name string
		step float64
		want int
	}{
		{"integer step", 1, 0},
		{"half step", 0.5, 1},
		{"quarter step", 0.25, 2},
		{"five step", 5, 0},
		{"hundredth step", 0.01, 2},
		{"zero step", 0, 0},
		{"negative step", -0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrecisionFromStep(tt.step); got != tt.want {
				t.Errorf("PrecisionFromStep(%v) = %d, want %d", tt.step, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		precision int
		unit      string
		want      string
	}{
		{"no unit", 63, 1, "", "63.0"},
		{"degree unit attaches", 58, 0, "°C", "58°C"},
		{"word unit spaced", 21.5, 1, "kW", "21.5 kW"},
		{"percent spaced", 63, 0, "%", "63 %"},
		{"zero precision", 58.9, 0, "°C", "59°C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatNumber(tt.value, tt.precision, tt.unit); got != tt.want {
				t.Errorf("FormatNumber(%v, %d, %q) = %q, want %q", tt.value, tt.precision, tt.unit, got, tt.want)
			}
		})
	}
}

func TestFormatReading(t *testing.T) {
	v := 58.34
	if got := FormatReading(&v, 0, "°C"); got != "58°C" {
		t.Errorf("FormatReading = %q, want %q", got, "58°C")
	}
	if got := FormatReading(nil, 0, "°C"); got != "--" {
		t.Errorf("FormatReading(nil) = %q, want --", got)
	}
}

func TestFormatOnOff(t *testing.T) {
	if got := FormatOnOff(true); got != "ON" {
		t.Errorf("FormatOnOff(true) = %q", got)
	}
	if got := FormatOnOff(false); got != "OFF" {
		t.Errorf("FormatOnOff(false) = %q", got)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(63); got != "63%" {
		t.Errorf("FormatPercent(63) = %q", got)
	}
	if got := FormatPercent(150); got != "100%" {
		t.Errorf("FormatPercent(150) = %q", got)
	}
}
