// Package state defines the device-state snapshot returned by the boiler
// controller's /state/current endpoint. One snapshot is fetched per poll
// cycle, folded into the view-model, and discarded.
package state

import (
	"encoding/json"
	"fmt"
)

// Mode is the boiler operating mode reported by the controller.
type Mode string

const (
	ModeOff      Mode = "OFF"
	ModeIgnition Mode = "IGNITION"
	ModeWork     Mode = "WORK"
	ModeManual   Mode = "MANUAL"
)

// modeDisplay maps modes to the operator-facing labels used when the
// controller does not supply mode_display itself.
var modeDisplay = map[Mode]string{
	ModeOff:      "off",
	ModeIgnition: "ignition",
	ModeWork:     "running",
	ModeManual:   "manual",
}

// Known returns true for the closed set of modes the controller reports.
// Unknown modes are still carried through and rendered verbatim.
func (m Mode) Known() bool {
	switch m {
	case ModeOff, ModeIgnition, ModeWork, ModeManual:
		return true
	}
	return false
}

// Display returns the operator-facing label for the mode.
func (m Mode) Display() string {
	if s, ok := modeDisplay[m]; ok {
		return s
	}
	return string(m)
}

// ModuleStatus is the per-module health block the controller includes with
// each state snapshot.
type ModuleStatus struct {
	Health           string  `json:"health"`
	LastError        *string `json:"last_error"`
	LastTickDuration float64 `json:"last_tick_duration"`
	LastUpdated      float64 `json:"last_updated"`
}

// DeviceState is one polled snapshot of the controller.
//
// Sensor readings are pointers: a nil reading means the sensor is absent or
// disconnected, which is distinct from reading zero. Outputs mix booleans
// (pumps, feeder) and numbers (fan power, computed power percent), so they
// are kept as a generic map and interpreted by the view-model.
type DeviceState struct {
	Ts           float64                 `json:"ts"`
	Mode         Mode                    `json:"mode"`
	ModeDisplay  string                  `json:"mode_display,omitempty"`
	AlarmActive  bool                    `json:"alarm_active"`
	AlarmMessage string                  `json:"alarm_message,omitempty"`
	Sensors      map[string]*float64     `json:"sensors"`
	Outputs      map[string]any          `json:"outputs"`
	Modules      map[string]ModuleStatus `json:"modules,omitempty"`
}

// Parse decodes a /state/current response body.
func Parse(data []byte) (*DeviceState, error) {
	var s DeviceState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse device state: %w", err)
	}
	if s.Sensors == nil {
		s.Sensors = map[string]*float64{}
	}
	if s.Outputs == nil {
		s.Outputs = map[string]any{}
	}
	return &s, nil
}

// ModeLabel returns the display label for the snapshot's mode, preferring
// the controller-supplied mode_display when present.
func (s *DeviceState) ModeLabel() string {
	if s.ModeDisplay != "" {
		return s.ModeDisplay
	}
	return s.Mode.Display()
}

// OutputBool reads a boolean output channel. Numeric outputs are treated as
// on when non-zero, so a fan running at any power reads as on.
func (s *DeviceState) OutputBool(name string) (bool, bool) {
	v, ok := s.Outputs[name]
	if !ok {
		return false, false
	}
	switch x := v.(type) {
	case bool:
		return x, true
	case float64:
		return x != 0, true
	default:
		return false, false
	}
}

// OutputNumber reads a numeric output channel. Boolean outputs read as 0/1.
func (s *DeviceState) OutputNumber(name string) (float64, bool) {
	v, ok := s.Outputs[name]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
