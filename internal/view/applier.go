// Package view implements the state-synchronization view-model: change
// detection against the last rendered snapshot, patch coalescing, and
// frame-batched delivery to a renderer binding.
//
// The view-model is deliberately free of any rendering environment. The
// dashboard supplies a Binding (its setter sink) and a FrameScheduler
// (its frame boundary); tests supply in-memory fakes of both.
package view

import (
	"sort"
	"strings"
	"sync"

	"github.com/lecztomek/furnace-panel/internal/display"
	"github.com/lecztomek/furnace-panel/internal/state"
)

// Binding is the renderer sink: one named setter per displayed quantity.
// SetField is invoked only for fields whose comparable value changed, at
// most once per field per frame flush. Implementations must not call back
// into the Applier.
type Binding interface {
	SetField(key, displayValue string)
}

// FrameScheduler schedules a flush callback for the next frame boundary.
// At most one flush is pending at a time: the Applier only schedules when
// no flush is outstanding, and further changes merely extend the pending
// patch set.
type FrameScheduler interface {
	Schedule(flush func())
}

// SchedulerFunc adapts a function to the FrameScheduler interface.
type SchedulerFunc func(flush func())

// Schedule implements FrameScheduler.
func (f SchedulerFunc) Schedule(flush func()) { f(flush) }

// Kind selects how a logical field is extracted from a DeviceState and
// how its comparable value is computed.
type Kind int

const (
	// KindSensor is a numeric-or-absent sensor channel, compared after
	// rounding to the field's display precision so measurement noise below
	// the displayed resolution never causes a redraw.
	KindSensor Kind = iota
	// KindOutputBool is a boolean actuator channel, compared by identity.
	KindOutputBool
	// KindOutputNumber is a numeric actuator channel (fan power, computed
	// power percent), compared after display rounding.
	KindOutputNumber
	// KindMode is the boiler mode, compared by identity.
	KindMode
	// KindAlarm is the alarm indicator, compared as flag plus message.
	KindAlarm
	// KindModuleHealth summarizes the controller's per-module health block,
	// compared by the rendered summary string.
	KindModuleHealth
)

// FieldSpec describes one tracked logical field.
type FieldSpec struct {
	// Key is the logical field key the binding is addressed with.
	Key string
	// Source is the sensor or output channel name. Unused for mode and
	// alarm fields.
	Source string
	Kind   Kind
	// Precision is the display precision for numeric fields. Distinct
	// from the controller's raw precision.
	Precision int
	Unit      string
}

// alarmValue is the comparable form of the alarm indicator.
type alarmValue struct {
	active  bool
	message string
}

// Applier holds the last-rendered snapshot and turns incoming state into
// minimal, frame-batched renderer patches.
type Applier struct {
	binding   Binding
	scheduler FrameScheduler
	fields    []FieldSpec

	mu        sync.Mutex
	snapshot  map[string]any    // last comparable value committed per key
	pending   map[string]string // staged display values, last-value-wins
	scheduled bool
}

// NewApplier creates an applier tracking the given fields.
func NewApplier(binding Binding, scheduler FrameScheduler, fields []FieldSpec) *Applier {
	return &Applier{
		binding:   binding,
		scheduler: scheduler,
		fields:    fields,
		snapshot:  make(map[string]any, len(fields)),
		pending:   make(map[string]string),
	}
}

// Apply folds one state snapshot into the view-model. For each tracked
// field whose comparable value differs from the snapshot, a patch entry is
// staged (overwriting any staged entry for the same key) and the snapshot
// is updated. Patches are never written to the binding here; they flush at
// the next frame boundary. Applying an identical state is a no-op.
func (a *Applier) Apply(s *state.DeviceState) {
	if s == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, f := range a.fields {
		cur, displayValue := extract(s, f)
		if prev, ok := a.snapshot[f.Key]; ok && prev == cur {
			continue
		}
		a.snapshot[f.Key] = cur
		a.pending[f.Key] = displayValue
	}

	if len(a.pending) > 0 && !a.scheduled {
		a.scheduled = true
		a.scheduler.Schedule(a.flush)
	}
}

// flush writes the staged patch set to the binding. Runs once per
// scheduled frame; fields are written in their declared order so the
// renderer sees deterministic update sequences.
func (a *Applier) flush() {
	a.mu.Lock()
	patches := a.pending
	a.pending = make(map[string]string)
	a.scheduled = false
	fields := a.fields
	a.mu.Unlock()

	for _, f := range fields {
		if v, ok := patches[f.Key]; ok {
			a.binding.SetField(f.Key, v)
		}
	}
}

// extract computes the comparable value and the display string for one
// field. Absent channels compare as nil and display as a placeholder.
func extract(s *state.DeviceState, f FieldSpec) (any, string) {
	switch f.Kind {
	case KindSensor:
		v, ok := s.Sensors[f.Source]
		if !ok || v == nil {
			return nil, "--"
		}
		rounded := display.RoundTo(*v, f.Precision)
		return rounded, display.FormatNumber(rounded, f.Precision, f.Unit)

	case KindOutputBool:
		b, ok := s.OutputBool(f.Source)
		if !ok {
			return nil, "--"
		}
		return b, display.FormatOnOff(b)

	case KindOutputNumber:
		n, ok := s.OutputNumber(f.Source)
		if !ok {
			return nil, "--"
		}
		rounded := display.RoundTo(n, f.Precision)
		return rounded, display.FormatNumber(rounded, f.Precision, f.Unit)

	case KindMode:
		return string(s.Mode), s.ModeLabel()

	case KindAlarm:
		av := alarmValue{active: s.AlarmActive, message: s.AlarmMessage}
		if !av.active {
			return av, ""
		}
		if av.message != "" {
			return av, "ALARM: " + av.message
		}
		return av, "ALARM"

	case KindModuleHealth:
		summary := moduleHealthSummary(s.Modules)
		return summary, summary

	default:
		return nil, ""
	}
}

// moduleHealthSummary reduces the per-module health block to one line:
// every module healthy reads "all ok", otherwise the faulted modules are
// listed with their last errors.
func moduleHealthSummary(modules map[string]state.ModuleStatus) string {
	if len(modules) == 0 {
		return "--"
	}

	var faulted []string
	for id, m := range modules {
		if m.Health == "" || m.Health == "ok" {
			continue
		}
		entry := id + ": " + m.Health
		if m.LastError != nil && *m.LastError != "" {
			entry = id + ": " + *m.LastError
		}
		faulted = append(faulted, entry)
	}
	if len(faulted) == 0 {
		return "all ok"
	}
	sort.Strings(faulted)
	return strings.Join(faulted, ", ")
}

// DefaultFields returns the tracked fields for the boiler schematic: every
// sensor and output channel the controller reports, plus mode and alarm.
// Temperatures display as whole degrees regardless of the raw reading
// resolution.
func DefaultFields() []FieldSpec {
	temps := []string{
		"boiler_temp", "return_temp", "radiators_temp", "cwu_temp",
		"flue_gas_temp", "hopper_temp", "outside_temp", "mixer_temp",
	}
	pumps := []string{
		"feeder_on", "pump_co_on", "pump_cwu_on", "pump_circ_on",
		"mixer_open_on", "mixer_close_on", "alarm_buzzer_on", "alarm_relay_on",
	}

	fields := make([]FieldSpec, 0, len(temps)+len(pumps)+4)
	for _, name := range temps {
		fields = append(fields, FieldSpec{Key: name, Source: name, Kind: KindSensor, Precision: 0, Unit: "°C"})
	}
	fields = append(fields,
		FieldSpec{Key: "fan_power", Source: "fan_power", Kind: KindOutputNumber, Precision: 0, Unit: "%"},
		FieldSpec{Key: "power_percent", Source: "power_percent", Kind: KindOutputNumber, Precision: 0, Unit: "%"},
	)
	for _, name := range pumps {
		fields = append(fields, FieldSpec{Key: name, Source: name, Kind: KindOutputBool})
	}
	fields = append(fields,
		FieldSpec{Key: "mode", Kind: KindMode},
		FieldSpec{Key: "alarm", Kind: KindAlarm},
		FieldSpec{Key: "module_health", Kind: KindModuleHealth},
	)
	return fields
}
