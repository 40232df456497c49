package schema

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/lecztomek/furnace-panel/internal/display"
)

// Widget defines the per-type editing strategy for a schema field.
//
// Render produces the display string for the current draft value. Adjust
// applies one decrement (-1) or increment (+1) interaction and returns the
// new value. Coerce normalizes an arbitrary incoming value (server values,
// stale drafts) to something that satisfies the field's constraints; it
// never fails, it clamps and substitutes best-effort defaults instead.
type Widget interface {
	Render(f FieldDef, value any) string
	Adjust(f FieldDef, value any, delta int) any
	Coerce(f FieldDef, value any) any
}

// Registry maps field type tags to widget implementations. Unknown tags
// resolve to a read-only fallback widget, so an unexpected field type in a
// server schema degrades to display-only instead of failing the module.
type Registry struct {
	widgets map[FieldType]Widget
}

// NewRegistry creates a registry pre-populated with the built-in widgets
// for number, boolean and enumerated text fields.
func NewRegistry() *Registry {
	r := &Registry{widgets: make(map[FieldType]Widget)}
	r.Register(FieldNumber, numberWidget{})
	r.Register(FieldBoolean, booleanWidget{})
	r.Register(FieldText, textWidget{})
	return r
}

// Register adds or replaces the widget for a field type.
func (r *Registry) Register(t FieldType, w Widget) {
	r.widgets[t] = w
}

// Lookup returns the widget for a field type. Unknown types get the
// read-only fallback; the second return reports whether the type was
// registered.
func (r *Registry) Lookup(t FieldType) (Widget, bool) {
	if w, ok := r.widgets[t]; ok {
		return w, true
	}
	return fallbackWidget{}, false
}

// numberWidget edits bounded numeric values in ±step increments. Values are
// clamped to [min, max] and rounded to the field's precision after every
// interaction, not only on save.
type numberWidget struct{}

func (numberWidget) Render(f FieldDef, value any) string {
	n, ok := toFloat(value)
	if !ok {
		return fmt.Sprintf("%v", value)
	}
	return display.FormatNumber(n, f.EffectivePrecision(), f.Unit)
}

func (numberWidget) Adjust(f FieldDef, value any, delta int) any {
	n, ok := toFloat(value)
	if !ok {
		n, _ = toFloat(f.Default)
	}
	n += float64(delta) * f.EffectiveStep()
	min, max := f.Bounds()
	return display.RoundTo(display.Clamp(n, min, max), f.EffectivePrecision())
}

func (numberWidget) Coerce(f FieldDef, value any) any {
	n, ok := toFloat(value)
	if !ok {
		if n, ok = toFloat(f.Default); !ok {
			n, _ = f.Bounds()
		}
	}
	min, max := f.Bounds()
	return display.RoundTo(display.Clamp(n, min, max), f.EffectivePrecision())
}

// booleanWidget flips an on/off value.
type booleanWidget struct{}

func (booleanWidget) Render(f FieldDef, value any) string {
	b, _ := toBool(value)
	return display.FormatOnOff(b)
}

func (booleanWidget) Adjust(f FieldDef, value any, delta int) any {
	b, _ := toBool(value)
	return !b
}

func (booleanWidget) Coerce(f FieldDef, value any) any {
	b, ok := toBool(value)
	if !ok {
		if d, dok := toBool(f.Default); dok {
			return d
		}
		return false
	}
	return b
}

// textWidget cycles an enumerated value through the field's option list,
// wrapping at both ends. A draft value missing from the list (stale after a
// schema change) is treated as index 0 before cycling.
type textWidget struct{}

func (textWidget) Render(f FieldDef, value any) string {
	return fmt.Sprintf("%v", value)
}

func (textWidget) Adjust(f FieldDef, value any, delta int) any {
	if len(f.Options) == 0 {
		return value
	}
	idx := optionIndex(f.Options, value)
	if idx < 0 {
		idx = 0
	}
	n := len(f.Options)
	idx = ((idx+delta)%n + n) % n
	return f.Options[idx]
}

func (textWidget) Coerce(f FieldDef, value any) any {
	if len(f.Options) == 0 {
		return fmt.Sprintf("%v", value)
	}
	if idx := optionIndex(f.Options, value); idx >= 0 {
		return f.Options[idx]
	}
	if d, ok := f.Default.(string); ok && optionIndex(f.Options, d) >= 0 {
		return d
	}
	return f.Options[0]
}

// fallbackWidget renders unsupported field types read-only. Interactions
// leave the value untouched.
type fallbackWidget struct{}

func (fallbackWidget) Render(f FieldDef, value any) string {
	return fmt.Sprintf("%v", value)
}

func (fallbackWidget) Adjust(f FieldDef, value any, delta int) any {
	return value
}

func (fallbackWidget) Coerce(f FieldDef, value any) any {
	return value
}

func optionIndex(options []string, value any) int {
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprintf("%v", value)
	}
	for i, opt := range options {
		if opt == s {
			return i
		}
	}
	return -1
}

// toFloat converts the value shapes JSON decoding and widget interactions
// produce into a float64.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case float64:
		return x != 0, true
	case int:
		return x != 0, true
	case string:
		b, err := strconv.ParseBool(x)
		return b, err == nil
	default:
		return false, false
	}
}
