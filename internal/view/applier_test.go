package view

import (
	"testing"

	"github.com/lecztomek/furnace-panel/internal/state"
)

// fakeBinding records SetField calls in order.
type fakeBinding struct {
	writes []write
}

type write struct {
	key   string
	value string
}

func (b *fakeBinding) SetField(key, value string) {
	b.writes = append(b.writes, write{key, value})
}

func (b *fakeBinding) get(key string) (string, bool) {
	for i := len(b.writes) - 1; i >= 0; i-- {
		if b.writes[i].key == key {
			return b.writes[i].value, true
		}
	}
	return "", false
}

// fakeScheduler collects scheduled flushes; the test fires the frame
// boundary explicitly.
type fakeScheduler struct {
	pending []func()
}

func (s *fakeScheduler) Schedule(flush func()) {
	s.pending = append(s.pending, flush)
}

func (s *fakeScheduler) fire() {
	pending := s.pending
	s.pending = nil
	for _, f := range pending {
		f()
	}
}

func f64(v float64) *float64 { return &v }

func testState(boilerTemp float64, pumpOn bool) *state.DeviceState {
	return &state.DeviceState{
		Mode: state.ModeWork,
		Sensors: map[string]*float64{
			"boiler_temp": f64(boilerTemp),
		},
		Outputs: map[string]any{
			"pump_co_on": pumpOn,
			"fan_power":  63.0,
		},
	}
}

func testFields() []FieldSpec {
	return []FieldSpec{
		{Key: "boiler_temp", Source: "boiler_temp", Kind: KindSensor, Precision: 0, Unit: "°C"},
		{Key: "fan_power", Source: "fan_power", Kind: KindOutputNumber, Precision: 0, Unit: "%"},
		{Key: "pump_co_on", Source: "pump_co_on", Kind: KindOutputBool},
		{Key: "mode", Kind: KindMode},
		{Key: "alarm", Kind: KindAlarm},
	}
}

func TestApplyRendersChangedFields(t *testing.T) {
	binding := &fakeBinding{}
	sched := &fakeScheduler{}
	a := NewApplier(binding, sched, testFields())

	a.Apply(testState(58.34, false))

	if len(binding.writes) != 0 {
		t.Fatal("patches must never flush synchronously inside Apply")
	}

	sched.fire()

	if v, _ := binding.get("boiler_temp"); v != "58°C" {
		t.Errorf("boiler_temp rendered %q, want 58°C", v)
	}
	if v, _ := binding.get("pump_co_on"); v != "OFF" {
		t.Errorf("pump_co_on rendered %q, want OFF", v)
	}
	if v, _ := binding.get("fan_power"); v != "63 %" {
		t.Errorf("fan_power rendered %q", v)
	}
	if v, _ := binding.get("mode"); v != "running" {
		t.Errorf("mode rendered %q, want running", v)
	}
}

func TestIdempotence(t *testing.T) {
	binding := &fakeBinding{}
	sched := &fakeScheduler{}
	a := NewApplier(binding, sched, testFields())

	s := testState(58.34, false)
	a.Apply(s)
	sched.fire()

	writes := len(binding.writes)

	// Re-applying an identical state produces zero patches.
	a.Apply(s)
	if len(sched.pending) != 0 {
		t.Error("no flush should be scheduled for an unchanged state")
	}
	sched.fire()

	if len(binding.writes) != writes {
		t.Errorf("second apply produced %d extra writes", len(binding.writes)-writes)
	}
}

func TestNoiseBelowDisplayPrecisionDoesNotRedraw(t *testing.T) {
	binding := &fakeBinding{}
	sched := &fakeScheduler{}
	a := NewApplier(binding, sched, testFields())

	a.Apply(testState(58.34, false))
	sched.fire()
	writes := len(binding.writes)

	// 58.36 rounds to the same displayed 58: no redraw of the temperature.
	// The pump flip must still redraw.
	a.Apply(testState(58.36, true))
	sched.fire()

	for _, w := range binding.writes[writes:] {
		if w.key == "boiler_temp" {
			t.Error("boiler_temp redrawn for sub-precision noise")
		}
	}
	if v, _ := binding.get("pump_co_on"); v != "ON" {
		t.Errorf("pump_co_on = %q, want ON after flip", v)
	}
}

func TestCoalescingLastValueWins(t *testing.T) {
	binding := &fakeBinding{}
	sched := &fakeScheduler{}
	a := NewApplier(binding, sched, testFields())

	// Two applies before the frame boundary fires: one scheduled flush,
	// one write per key, latest value.
	a.Apply(testState(50, false))
	a.Apply(testState(60, false))

	if len(sched.pending) != 1 {
		t.Fatalf("scheduled flushes = %d, want 1", len(sched.pending))
	}

	sched.fire()

	tempWrites := 0
	for _, w := range binding.writes {
		if w.key == "boiler_temp" {
			tempWrites++
		}
	}
	if tempWrites != 1 {
		t.Errorf("boiler_temp written %d times, want 1 (coalesced)", tempWrites)
	}
	if v, _ := binding.get("boiler_temp"); v != "60°C" {
		t.Errorf("boiler_temp = %q, want last value 60°C", v)
	}
}

func TestAbsentSensorRendersPlaceholder(t *testing.T) {
	binding := &fakeBinding{}
	sched := &fakeScheduler{}
	a := NewApplier(binding, sched, testFields())

	s := testState(58, false)
	s.Sensors["boiler_temp"] = nil
	a.Apply(s)
	sched.fire()

	if v, _ := binding.get("boiler_temp"); v != "--" {
		t.Errorf("absent sensor rendered %q, want --", v)
	}
}

func TestAlarmField(t *testing.T) {
	binding := &fakeBinding{}
	sched := &fakeScheduler{}
	a := NewApplier(binding, sched, testFields())

	s := testState(58, false)
	s.AlarmActive = true
	s.AlarmMessage = "boiler overheat"
	a.Apply(s)
	sched.fire()

	if v, _ := binding.get("alarm"); v != "ALARM: boiler overheat" {
		t.Errorf("alarm rendered %q", v)
	}

	// Alarm clearing redraws to empty.
	s2 := testState(58, false)
	a.Apply(s2)
	sched.fire()

	if v, _ := binding.get("alarm"); v != "" {
		t.Errorf("cleared alarm rendered %q, want empty", v)
	}
}

func TestModeChangeRedraws(t *testing.T) {
	binding := &fakeBinding{}
	sched := &fakeScheduler{}
	a := NewApplier(binding, sched, testFields())

	a.Apply(testState(58, false))
	sched.fire()

	s := testState(58, false)
	s.Mode = state.ModeManual
	s.ModeDisplay = ""
	a.Apply(s)
	sched.fire()

	if v, _ := binding.get("mode"); v != "manual" {
		t.Errorf("mode rendered %q, want manual", v)
	}
}

func TestDefaultFieldsCoverStateChannels(t *testing.T) {
	fields := DefaultFields()

	keys := make(map[string]bool, len(fields))
	for _, f := range fields {
		if keys[f.Key] {
			t.Errorf("duplicate field key %q", f.Key)
		}
		keys[f.Key] = true
	}

	for _, want := range []string{"boiler_temp", "cwu_temp", "fan_power", "power_percent", "pump_co_on", "mode", "alarm", "module_health"} {
		if !keys[want] {
			t.Errorf("DefaultFields missing %q", want)
		}
	}
}

func TestModuleHealthSummary(t *testing.T) {
	fail := "schema file corrupted"
	tests := []struct {
		name    string
		modules map[string]state.ModuleStatus
		want    string
	}{
		{"no modules", nil, "--"},
		{"all healthy", map[string]state.ModuleStatus{
			"burner": {Health: "ok"},
			"blower": {Health: "ok"},
		}, "all ok"},
		{"one faulted with error", map[string]state.ModuleStatus{
			"burner": {Health: "ok"},
			"blower": {Health: "error", LastError: &fail},
		}, "blower: schema file corrupted"},
		{"faulted without error text", map[string]state.ModuleStatus{
			"pumps": {Health: "degraded"},
		}, "pumps: degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := moduleHealthSummary(tt.modules); got != tt.want {
				t.Errorf("moduleHealthSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
