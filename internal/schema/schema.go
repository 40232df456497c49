// Package schema implements the runtime configuration model for the boiler
// controller: per-module field schemas fetched from the server, the locally
// edited draft values, and the widget registry that maps field types to
// editing behavior.
//
// The shape of a module's configuration is not known at build time. The
// controller supplies an ordered list of field definitions (type, bounds,
// step, options) and the panel generates one editing widget per field.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/lecztomek/furnace-panel/internal/display"
)

// FieldType tags a field definition with its editing behavior.
type FieldType string

const (
	// FieldNumber is a bounded numeric value edited in ±step increments.
	FieldNumber FieldType = "number"
	// FieldBoolean is an on/off toggle.
	FieldBoolean FieldType = "boolean"
	// FieldText is an enumerated text value cycled through a fixed option
	// list. The controller's schema files call this type "text".
	FieldText FieldType = "text"
)

// ModuleInfo describes one configurable subsystem, as returned by
// GET /config/modules.
type ModuleInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DisplayName returns the module name, falling back to the id.
func (m ModuleInfo) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// FieldDef is one entry in a module's schema. Fields are ordered and keys
// are unique within a module.
type FieldDef struct {
	Key         string    `json:"key"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label,omitempty"`
	Description string    `json:"description,omitempty"`
	Unit        string    `json:"unit,omitempty"`

	// Numeric constraints. Min and Max are optional in the schema files;
	// absent bounds mean the field is unbounded on that side.
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step float64  `json:"step,omitempty"`

	// Precision is the number of decimal places. When the schema omits it,
	// the precision is derived from the fractional digits of Step.
	Precision *int `json:"precision,omitempty"`

	Default any `json:"default,omitempty"`

	// Options is the ordered allowed-value list for FieldText fields.
	Options []string `json:"options,omitempty"`
}

// DisplayLabel returns the field label, falling back to the key.
func (f FieldDef) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}

// EffectivePrecision returns the declared precision, or one derived from the
// step's fractional digits when the schema does not declare it.
func (f FieldDef) EffectivePrecision() int {
	if f.Precision != nil && *f.Precision >= 0 {
		return *f.Precision
	}
	return display.PrecisionFromStep(f.Step)
}

// EffectiveStep returns the declared step, defaulting to 1.
func (f FieldDef) EffectiveStep() float64 {
	if f.Step > 0 {
		return f.Step
	}
	return 1
}

// Bounds returns the numeric range, substituting wide-open bounds for
// whichever side the schema leaves unspecified.
func (f FieldDef) Bounds() (min, max float64) {
	min, max = -1e18, 1e18
	if f.Min != nil {
		min = *f.Min
	}
	if f.Max != nil {
		max = *f.Max
	}
	return min, max
}

// Schema is a module's ordered field list, as returned by
// GET /config/schema/{moduleId}.
type Schema struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Fields      []FieldDef `json:"fields"`
}

// Field looks up a field definition by key.
func (s *Schema) Field(key string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDef{}, false
}

// ParseSchema decodes a schema response body and validates that field keys
// are unique.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse module schema: %w", err)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Key == "" {
			return nil, fmt.Errorf("schema field with empty key")
		}
		if seen[f.Key] {
			return nil, fmt.Errorf("duplicate schema field key %q", f.Key)
		}
		seen[f.Key] = true
	}
	return &s, nil
}

// ParseModules decodes a module-list response body, preserving order.
func ParseModules(data []byte) ([]ModuleInfo, error) {
	var mods []ModuleInfo
	if err := json.Unmarshal(data, &mods); err != nil {
		return nil, fmt.Errorf("failed to parse module list: %w", err)
	}
	return mods, nil
}

// ParseValues decodes a values response body (key → value mapping).
func ParseValues(data []byte) (map[string]any, error) {
	var vals map[string]any
	if err := json.Unmarshal(data, &vals); err != nil {
		return nil, fmt.Errorf("failed to parse module values: %w", err)
	}
	if vals == nil {
		vals = map[string]any{}
	}
	return vals, nil
}
