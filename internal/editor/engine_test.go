package editor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/lecztomek/furnace-panel/internal/api"
)

// fakeController serves the configuration endpoints for two modules. The
// blower module can be made to fail its schema fetch to exercise
// per-module isolation.
type fakeController struct {
	mu          sync.Mutex
	blowerFails bool
	burnerPut   map[string]any
}

func (f *fakeController) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /config/modules", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": "burner", "name": "Burner"},
			{"id": "blower", "name": "Blower"},
		})
	})

	mux.HandleFunc("GET /config/schema/burner", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"id": "burner",
			"fields": []map[string]any{
				{"key": "target_temp", "type": "number", "min": 40.0, "max": 80.0, "step": 1.0, "unit": "°C", "default": 60.0},
				{"key": "pump_enabled", "type": "boolean", "default": true},
				{"key": "work_mode", "type": "text", "options": []string{"ECO", "COMFORT", "BOOST"}, "default": "ECO"},
			},
		})
	})

	mux.HandleFunc("GET /config/schema/blower", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		fails := f.blowerFails
		f.mu.Unlock()
		if fails {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, map[string]any{"detail": "schema file corrupted"})
			return
		}
		writeJSON(w, map[string]any{
			"id": "blower",
			"fields": []map[string]any{
				{"key": "fan_power", "type": "number", "min": 0.0, "max": 100.0, "step": 1.0, "unit": "%", "default": 50.0},
			},
		})
	})

	mux.HandleFunc("GET /config/values/burner", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"target_temp":  58.0,
			"pump_enabled": true,
			"work_mode":    "COMFORT",
		})
	})

	mux.HandleFunc("GET /config/values/blower", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"fan_power": 63.0})
	})

	mux.HandleFunc("PUT /config/values/burner", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]any{"detail": "invalid payload"})
			return
		}
		f.mu.Lock()
		f.burnerPut = body
		f.mu.Unlock()
		// The controller re-normalizes: temperature comes back rounded.
		if t, ok := body["target_temp"].(float64); ok {
			body["target_temp"] = float64(int(t))
		}
		writeJSON(w, body)
	})

	mux.HandleFunc("PUT /config/values/blower", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]any{"detail": "blower busy"})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestEngine(t *testing.T) (*Engine, *fakeController) {
	t.Helper()
	fc := &fakeController{}
	srv := httptest.NewServer(fc.handler())
	t.Cleanup(srv.Close)
	return New(api.NewClientWithURL(srv.URL)), fc
}

func TestLoadAllPopulatesModules(t *testing.T) {
	e, _ := newTestEngine(t)

	if err := e.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	mods := e.Modules()
	if len(mods) != 2 {
		t.Fatalf("got %d modules, want 2", len(mods))
	}
	if mods[0].Info.ID != "burner" || mods[1].Info.ID != "blower" {
		t.Errorf("module order %q, %q; want server order", mods[0].Info.ID, mods[1].Info.ID)
	}
	for _, m := range mods {
		if !m.Editable() {
			t.Errorf("module %s not editable after clean load: %v", m.Info.ID, m.Err)
		}
	}

	if v, ok := e.FieldValue("burner", "target_temp"); !ok || v != 58.0 {
		t.Errorf("target_temp draft = %v, want 58", v)
	}
	if e.Dirty("burner") {
		t.Error("freshly loaded module must not be dirty")
	}
}

func TestModuleLoadFailureIsIsolated(t *testing.T) {
	e, fc := newTestEngine(t)
	fc.blowerFails = true

	if err := e.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	blower, _ := e.Module("blower")
	if blower.Err == nil {
		t.Fatal("blower should carry its load error")
	}
	if !api.IsServerError(blower.Err) {
		t.Errorf("blower error = %v, want server error", blower.Err)
	}

	// The burner is unaffected and fully editable.
	burner, _ := e.Module("burner")
	if !burner.Editable() {
		t.Fatalf("burner must stay editable: %v", burner.Err)
	}
	if _, err := e.AdjustField("burner", "target_temp", +1); err != nil {
		t.Errorf("adjust on healthy module: %v", err)
	}

	// Recovery: the module becomes editable after a successful reload.
	fc.mu.Lock()
	fc.blowerFails = false
	fc.mu.Unlock()
	if err := e.ReloadModule(context.Background(), "blower"); err != nil {
		t.Fatalf("ReloadModule: %v", err)
	}
	blower, _ = e.Module("blower")
	if !blower.Editable() {
		t.Errorf("blower still not editable after reload: %v", blower.Err)
	}
	if v, ok := e.FieldValue("blower", "fan_power"); !ok || v != 63.0 {
		t.Errorf("fan_power draft = %v, want 63", v)
	}
}

func TestAdjustFieldRespectsBoundsAndMarksDirty(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	// 58 + 1 = 59.
	v, err := e.AdjustField("burner", "target_temp", +1)
	if err != nil {
		t.Fatalf("AdjustField: %v", err)
	}
	if v != 59.0 {
		t.Errorf("adjusted value = %v, want 59", v)
	}
	if !e.Dirty("burner") {
		t.Error("module should be dirty after an edit")
	}

	// Increments clamp at the schema maximum.
	for i := 0; i < 30; i++ {
		v, _ = e.AdjustField("burner", "target_temp", +1)
	}
	if v != 80.0 {
		t.Errorf("value after repeated increments = %v, want clamped 80", v)
	}

	// Boolean toggles, enum cycles with wraparound.
	if v, _ = e.AdjustField("burner", "pump_enabled", +1); v != false {
		t.Errorf("pump toggle = %v, want false", v)
	}
	if v, _ = e.AdjustField("burner", "work_mode", +1); v != "BOOST" {
		t.Errorf("work_mode = %v, want BOOST", v)
	}
	if v, _ = e.AdjustField("burner", "work_mode", +1); v != "ECO" {
		t.Errorf("work_mode after wrap = %v, want ECO", v)
	}
}

func TestRenderField(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if got := e.RenderField("burner", "target_temp"); got != "58°C" {
		t.Errorf("target_temp rendered %q, want 58°C", got)
	}
	if got := e.RenderField("burner", "pump_enabled"); got != "ON" {
		t.Errorf("pump_enabled rendered %q, want ON", got)
	}
	if got := e.RenderField("burner", "work_mode"); got != "COMFORT" {
		t.Errorf("work_mode rendered %q", got)
	}
}

func TestSaveSendsFullDraftAndReconciles(t *testing.T) {
	e, fc := newTestEngine(t)
	if err := e.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if err := e.SetField("burner", "target_temp", 63.4); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := e.Save(context.Background(), "burner"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The PUT body carries the complete draft, not just the edited field.
	fc.mu.Lock()
	sent := fc.burnerPut
	fc.mu.Unlock()
	for _, key := range []string{"target_temp", "pump_enabled", "work_mode"} {
		if _, ok := sent[key]; !ok {
			t.Errorf("save payload missing %q; full draft must be sent", key)
		}
	}

	// The server rounded 63.4 down to 63 and that reconciled value
	// replaced the draft, so the module is clean again.
	if v, _ := e.FieldValue("burner", "target_temp"); v != 63.0 {
		t.Errorf("reconciled draft value = %v, want 63", v)
	}
	if e.Dirty("burner") {
		t.Error("module should be clean after a successful save")
	}
}

func TestSaveFailureLeavesDraftUntouched(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if _, err := e.AdjustField("blower", "fan_power", +1); err != nil {
		t.Fatalf("AdjustField: %v", err)
	}

	err := e.Save(context.Background(), "blower")
	if err == nil {
		t.Fatal("save against a failing endpoint must error")
	}
	if !api.IsServerError(err) {
		t.Errorf("save error = %v, want server error", err)
	}

	// Edits survive the failure so the user can retry.
	if v, _ := e.FieldValue("blower", "fan_power"); v != 64.0 {
		t.Errorf("draft value after failed save = %v, want 64", v)
	}
	if !e.Dirty("blower") {
		t.Error("module should remain dirty after a failed save")
	}
}

func TestRevertRestoresBaseline(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	e.AdjustField("burner", "target_temp", +1)
	e.AdjustField("burner", "pump_enabled", +1)
	if !e.Dirty("burner") {
		t.Fatal("expected dirty module")
	}

	e.Revert("burner")
	if e.Dirty("burner") {
		t.Error("module should be clean after revert")
	}
	if v, _ := e.FieldValue("burner", "target_temp"); v != 58.0 {
		t.Errorf("reverted value = %v, want 58", v)
	}
}
