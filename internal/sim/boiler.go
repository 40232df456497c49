package sim

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/lecztomek/furnace-panel/internal/api"
	"github.com/lecztomek/furnace-panel/internal/schema"
	"github.com/lecztomek/furnace-panel/internal/state"
)

// Boiler is the simulated controller core: boiler state that evolves over
// time plus a schema-backed configuration store. All methods are safe for
// concurrent use; the HTTP handlers and the tick loop share one instance.
type Boiler struct {
	mu sync.Mutex

	mode     state.Mode
	alarm    bool
	alarmMsg string

	sensors map[string]float64
	outputs map[string]any
	manual  api.ManualOutputs

	modules []schema.ModuleInfo
	schemas map[string]*schema.Schema
	values  map[string]map[string]any

	started time.Time
}

// NewBoiler creates a simulated boiler in the given initial mode, with the
// default module set and every configuration value at its schema default.
func NewBoiler(mode state.Mode) *Boiler {
	b := &Boiler{
		mode:    mode,
		sensors: defaultSensors(),
		outputs: defaultOutputs(),
		modules: defaultModules(),
		schemas: defaultSchemas(),
		values:  map[string]map[string]any{},
		started: time.Now(),
	}
	for id, s := range b.schemas {
		vals := map[string]any{}
		for _, f := range s.Fields {
			vals[f.Key] = f.Default
		}
		b.values[id] = vals
	}
	return b
}

// Tick advances the simulation one step: sensor drift toward the burner
// target, fan power tracking demand, and pump switching on hysteresis.
func (b *Boiler) Tick() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mode == state.ModeManual {
		b.applyManualLocked()
		return
	}

	target := b.numberValueLocked("burner", "target_temp", 60)
	hyst := b.numberValueLocked("burner", "hysteresis", 2)
	fanMax := b.numberValueLocked("blower", "fan_max", 80)

	boiler := b.sensors["boiler_temp"]
	burning := b.mode == state.ModeWork || b.mode == state.ModeIgnition

	// First-order drift toward the target while burning, toward ambient
	// otherwise. The gain is arbitrary but produces visible movement at a
	// one-second tick.
	if burning && boiler < target {
		boiler += (target - boiler) * 0.05
	} else {
		boiler -= (boiler - 20) * 0.01
	}
	b.sensors["boiler_temp"] = round1(boiler)
	b.sensors["return_temp"] = round1(boiler - 8)
	b.sensors["flue_gas_temp"] = round1(boiler*2 + 30)

	var fan float64
	if burning && boiler < target-hyst {
		fan = fanMax
	} else if burning {
		fan = fanMax / 2
	}
	b.outputs["fan_power"] = fan
	b.outputs["power_percent"] = round1(fan / math.Max(fanMax, 1) * 100)
	b.outputs["feeder_on"] = burning && fan > 0

	pumpOn := b.numberValueLocked("pumps", "pump_on_temp", 40)
	b.outputs["pump_co_on"] = boiler >= pumpOn

	// Overheat alarm latches until the temperature falls back.
	if boiler >= 90 {
		b.alarm = true
		b.alarmMsg = "boiler overheat"
		b.mode = state.ModeOff
	} else if b.alarm && boiler < 85 {
		b.alarm = false
		b.alarmMsg = ""
	}
}

// applyManualLocked forces outputs from the manual block.
func (b *Boiler) applyManualLocked() {
	b.outputs["fan_power"] = float64(b.manual.FanPower)
	b.outputs["feeder_on"] = b.manual.FeederOn
	b.outputs["pump_co_on"] = b.manual.PumpCoOn
	b.outputs["pump_cwu_on"] = b.manual.PumpCwuOn
	b.outputs["mixer_open_on"] = b.manual.MixerOpenOn
	b.outputs["mixer_close_on"] = b.manual.MixerCloseOn
}

// Snapshot returns the current state in the wire shape of /state/current.
func (b *Boiler) Snapshot() *state.DeviceState {
	b.mu.Lock()
	defer b.mu.Unlock()

	sensors := make(map[string]*float64, len(b.sensors))
	for k, v := range b.sensors {
		val := v
		sensors[k] = &val
	}
	// outside_temp deliberately reads as absent to exercise the
	// disconnected-sensor path in clients.
	sensors["outside_temp"] = nil

	outputs := make(map[string]any, len(b.outputs))
	for k, v := range b.outputs {
		outputs[k] = v
	}

	healthy := "ok"
	modules := map[string]state.ModuleStatus{}
	for _, m := range b.modules {
		modules[m.ID] = state.ModuleStatus{Health: healthy, LastUpdated: nowTs()}
	}

	return &state.DeviceState{
		Ts:           nowTs(),
		Mode:         b.mode,
		ModeDisplay:  b.mode.Display(),
		AlarmActive:  b.alarm,
		AlarmMessage: b.alarmMsg,
		Sensors:      sensors,
		Outputs:      outputs,
		Modules:      modules,
	}
}

// Modules returns the module list in declaration order.
func (b *Boiler) Modules() []schema.ModuleInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]schema.ModuleInfo(nil), b.modules...)
}

// Schema returns a module's field schema.
func (b *Boiler) Schema(moduleID string) (*schema.Schema, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.schemas[moduleID]
	return s, ok
}

// Values returns a copy of a module's current configuration values.
func (b *Boiler) Values(moduleID string) (map[string]any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	vals, ok := b.values[moduleID]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(vals))
	for k, v := range vals {
		out[k] = v
	}
	return out, true
}

// PutValues replaces a module's configuration with the submitted draft and
// returns the reconciled values: every submitted value is normalized against
// the schema, unknown keys are dropped, and missing keys keep their current
// values. This matches how the real controller reconciles a full-draft save.
func (b *Boiler) PutValues(moduleID string, draft map[string]any) (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.schemas[moduleID]
	if !ok {
		return nil, fmt.Errorf("unknown module %q", moduleID)
	}

	current := b.values[moduleID]
	next := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		v, submitted := draft[f.Key]
		if !submitted {
			next[f.Key] = current[f.Key]
			continue
		}
		nv, err := normalize(f, v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		next[f.Key] = nv
	}
	b.values[moduleID] = next

	out := make(map[string]any, len(next))
	for k, v := range next {
		out[k] = v
	}
	return out, nil
}

// Value returns a single configuration value.
func (b *Boiler) Value(moduleID, key string) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	vals, ok := b.values[moduleID]
	if !ok {
		return nil, fmt.Errorf("unknown module %q", moduleID)
	}
	v, ok := vals[key]
	if !ok {
		return nil, fmt.Errorf("unknown key %q in module %q", key, moduleID)
	}
	return v, nil
}

// PutValue writes a single configuration value and returns the normalized
// form the controller stored.
func (b *Boiler) PutValue(moduleID, key string, value any) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.schemas[moduleID]
	if !ok {
		return nil, fmt.Errorf("unknown module %q", moduleID)
	}
	f, ok := s.Field(key)
	if !ok {
		return nil, fmt.Errorf("unknown key %q in module %q", key, moduleID)
	}
	nv, err := normalize(f, value)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	b.values[moduleID][key] = nv
	return nv, nil
}

// Manual returns the current manual-mode output block.
func (b *Boiler) Manual() api.ManualState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return api.ManualState{Ts: nowTs(), Mode: b.mode, Manual: b.manual}
}

// PatchManual applies a partial manual output update. Rejected unless the
// boiler is in manual mode.
func (b *Boiler) PatchManual(patch *api.ManualPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mode != state.ModeManual {
		return fmt.Errorf("boiler is not in manual mode (current: %s)", b.mode)
	}

	if patch.FanPower != nil {
		b.manual.FanPower = *patch.FanPower
	}
	if patch.FeederOn != nil {
		b.manual.FeederOn = *patch.FeederOn
	}
	if patch.PumpCoOn != nil {
		b.manual.PumpCoOn = *patch.PumpCoOn
	}
	if patch.PumpCwuOn != nil {
		b.manual.PumpCwuOn = *patch.PumpCwuOn
	}
	if patch.MixerOpenOn != nil {
		b.manual.MixerOpenOn = *patch.MixerOpenOn
	}
	if patch.MixerCloseOn != nil {
		b.manual.MixerCloseOn = *patch.MixerCloseOn
	}
	b.manual.LastUpdateTs = nowTs()
	b.applyManualLocked()
	return nil
}

// SetMode switches the boiler mode directly. Used by the serve command's
// --mode flag and by tests.
func (b *Boiler) SetMode(mode state.Mode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = mode
}

// normalize coerces a submitted value into its schema-valid stored form:
// numbers are clamped to bounds and rounded to precision, booleans must be
// booleans, and text values must be one of the declared options.
func normalize(f schema.FieldDef, v any) (any, error) {
	switch f.Type {
	case schema.FieldNumber:
		n, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %T", v)
		}
		min, max := f.Bounds()
		n = math.Max(min, math.Min(max, n))
		scale := math.Pow(10, float64(f.EffectivePrecision()))
		return math.Round(n*scale) / scale, nil
	case schema.FieldBoolean:
		bv, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %T", v)
		}
		return bv, nil
	case schema.FieldText:
		sv, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", v)
		}
		for _, opt := range f.Options {
			if opt == sv {
				return sv, nil
			}
		}
		return nil, fmt.Errorf("%q is not an allowed option", sv)
	default:
		// Unknown field types are stored verbatim.
		return v, nil
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func (b *Boiler) numberValueLocked(moduleID, key string, fallback float64) float64 {
	if vals, ok := b.values[moduleID]; ok {
		if n, ok := asFloat(vals[key]); ok {
			return n
		}
	}
	return fallback
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func nowTs() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func defaultSensors() map[string]float64 {
	return map[string]float64{
		"boiler_temp":    42.0,
		"return_temp":    34.0,
		"radiators_temp": 38.0,
		"cwu_temp":       45.0,
		"flue_gas_temp":  114.0,
		"hopper_temp":    24.0,
		"mixer_temp":     36.0,
	}
}

func defaultOutputs() map[string]any {
	return map[string]any{
		"fan_power":       0.0,
		"power_percent":   0.0,
		"feeder_on":       false,
		"pump_co_on":      false,
		"pump_cwu_on":     false,
		"pump_circ_on":    false,
		"mixer_open_on":   false,
		"mixer_close_on":  false,
		"alarm_buzzer_on": false,
		"alarm_relay_on":  false,
	}
}

func defaultModules() []schema.ModuleInfo {
	return []schema.ModuleInfo{
		{ID: "burner", Name: "Burner", Description: "Combustion control and target temperature"},
		{ID: "blower", Name: "Blower", Description: "Fan power limits and blowthrough"},
		{ID: "feeder", Name: "Feeder", Description: "Fuel feed timing"},
		{ID: "pumps", Name: "Pumps", Description: "Circulation pump thresholds"},
	}
}

func ptrFloat(v float64) *float64 { return &v }

func defaultSchemas() map[string]*schema.Schema {
	return map[string]*schema.Schema{
		"burner": {
			ID:          "burner",
			Name:        "Burner",
			Description: "Combustion control and target temperature",
			Fields: []schema.FieldDef{
				{Key: "target_temp", Type: schema.FieldNumber, Label: "Target temperature",
					Unit: "°C", Min: ptrFloat(40), Max: ptrFloat(80), Step: 1, Default: 60.0},
				{Key: "hysteresis", Type: schema.FieldNumber, Label: "Hysteresis",
					Unit: "°C", Min: ptrFloat(1), Max: ptrFloat(10), Step: 0.5, Default: 2.0},
				{Key: "pump_enabled", Type: schema.FieldBoolean, Label: "CO pump enabled", Default: true},
				{Key: "work_mode", Type: schema.FieldText, Label: "Work mode",
					Options: []string{"ECO", "COMFORT", "BOOST"}, Default: "ECO"},
			},
		},
		"blower": {
			ID:          "blower",
			Name:        "Blower",
			Description: "Fan power limits and blowthrough",
			Fields: []schema.FieldDef{
				{Key: "fan_min", Type: schema.FieldNumber, Label: "Minimum fan power",
					Unit: "%", Min: ptrFloat(0), Max: ptrFloat(100), Step: 5, Default: 20.0},
				{Key: "fan_max", Type: schema.FieldNumber, Label: "Maximum fan power",
					Unit: "%", Min: ptrFloat(0), Max: ptrFloat(100), Step: 5, Default: 80.0},
				{Key: "blowthrough_interval_s", Type: schema.FieldNumber, Label: "Blowthrough interval",
					Unit: "s", Min: ptrFloat(60), Max: ptrFloat(1800), Step: 30, Default: 600.0},
			},
		},
		"feeder": {
			ID:          "feeder",
			Name:        "Feeder",
			Description: "Fuel feed timing",
			Fields: []schema.FieldDef{
				{Key: "feed_time_s", Type: schema.FieldNumber, Label: "Feed time",
					Unit: "s", Min: ptrFloat(1), Max: ptrFloat(60), Step: 1, Default: 8.0},
				{Key: "pause_time_s", Type: schema.FieldNumber, Label: "Pause time",
					Unit: "s", Min: ptrFloat(5), Max: ptrFloat(600), Step: 5, Default: 45.0},
			},
		},
		"pumps": {
			ID:          "pumps",
			Name:        "Pumps",
			Description: "Circulation pump thresholds",
			Fields: []schema.FieldDef{
				{Key: "pump_on_temp", Type: schema.FieldNumber, Label: "Pump start temperature",
					Unit: "°C", Min: ptrFloat(30), Max: ptrFloat(70), Step: 1, Default: 40.0},
				{Key: "cwu_priority", Type: schema.FieldBoolean, Label: "Hot water priority", Default: false},
			},
		},
	}
}
