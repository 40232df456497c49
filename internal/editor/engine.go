// Package editor implements the configuration editing engine: it loads the
// per-module schemas and current values from the controller, maintains the
// locally edited drafts, and performs full-draft saves with
// server-authoritative reconciliation.
package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lecztomek/furnace-panel/internal/logging"
	"github.com/lecztomek/furnace-panel/internal/schema"
)

// Client is the slice of the controller API the editor needs. *api.Client
// satisfies it.
type Client interface {
	ListModules(ctx context.Context) ([]schema.ModuleInfo, error)
	GetSchema(ctx context.Context, moduleID string) (*schema.Schema, error)
	GetValues(ctx context.Context, moduleID string) (map[string]any, error)
	PutValues(ctx context.Context, moduleID string, values map[string]any) (map[string]any, error)
}

// ModuleState is the editor's view of one configurable module. A module
// whose schema or values failed to load carries the error and stays
// non-editable until ReloadModule succeeds; other modules are unaffected.
type ModuleState struct {
	Info   schema.ModuleInfo
	Schema *schema.Schema
	Err    error
	Saving bool
}

// Editable reports whether the module loaded and is not mid-save.
func (m *ModuleState) Editable() bool {
	return m.Err == nil && m.Schema != nil && !m.Saving
}

// Engine drives the configuration editor. It owns the draft store and the
// widget registry and serializes all access behind one mutex, so it is safe
// to call from the UI loop and from background save commands.
type Engine struct {
	client   Client
	registry *schema.Registry
	drafts   *schema.DraftStore

	mu      sync.Mutex
	order   []string
	modules map[string]*ModuleState
	// baseline is the last server-confirmed value set per module, used to
	// tell edited drafts from clean ones.
	baseline map[string]map[string]any
}

// New creates an engine talking to the given controller API.
func New(client Client) *Engine {
	return &Engine{
		client:   client,
		registry: schema.NewRegistry(),
		drafts:   schema.NewDraftStore(),
		modules:  make(map[string]*ModuleState),
		baseline: make(map[string]map[string]any),
	}
}

// Registry exposes the widget registry, mainly so callers can register
// custom widgets before LoadAll.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// LoadAll fetches the module list and then loads every module's schema and
// current values concurrently. A failure in one module is recorded on that
// module alone; LoadAll returns an error only when the module list itself
// cannot be fetched.
func (e *Engine) LoadAll(ctx context.Context) error {
	infos, err := e.client.ListModules(ctx)
	if err != nil {
		return fmt.Errorf("list config modules: %w", err)
	}

	e.mu.Lock()
	e.order = e.order[:0]
	for _, info := range infos {
		e.order = append(e.order, info.ID)
		e.modules[info.ID] = &ModuleState{Info: info}
	}
	e.mu.Unlock()

	var wg sync.WaitGroup
	for _, info := range infos {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			e.loadModule(ctx, id)
		}(info.ID)
	}
	wg.Wait()
	return nil
}

// ReloadModule retries the schema and values load for one module, typically
// after a per-module load failure.
func (e *Engine) ReloadModule(ctx context.Context, moduleID string) error {
	e.mu.Lock()
	if _, ok := e.modules[moduleID]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("unknown config module %q", moduleID)
	}
	e.mu.Unlock()
	return e.loadModule(ctx, moduleID)
}

// loadModule fetches the module's schema and values concurrently, coerces
// the incoming values through the widgets, and installs them as both the
// draft and the clean baseline.
func (e *Engine) loadModule(ctx context.Context, moduleID string) error {
	var (
		wg        sync.WaitGroup
		sc        *schema.Schema
		values    map[string]any
		schemaErr error
		valuesErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sc, schemaErr = e.client.GetSchema(ctx, moduleID)
	}()
	go func() {
		defer wg.Done()
		values, valuesErr = e.client.GetValues(ctx, moduleID)
	}()
	wg.Wait()

	err := schemaErr
	if err == nil {
		err = valuesErr
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.modules[moduleID]
	if !ok {
		st = &ModuleState{Info: schema.ModuleInfo{ID: moduleID}}
		e.modules[moduleID] = st
		e.order = append(e.order, moduleID)
	}

	if err != nil {
		st.Err = err
		st.Schema = nil
		logging.LogModuleLoad(moduleID, 0, err)
		return err
	}

	st.Err = nil
	st.Schema = sc
	coerced := e.coerceLocked(sc, values)
	e.drafts.ReplaceDraft(moduleID, coerced)
	e.baseline[moduleID] = copyValues(coerced)
	logging.LogModuleLoad(moduleID, len(sc.Fields), nil)
	return nil
}

// coerceLocked normalizes a server value set against the schema: every
// schema field gets a value (falling back to the field default), and each
// value is run through its widget's Coerce. Keys the schema does not know
// are dropped.
func (e *Engine) coerceLocked(sc *schema.Schema, values map[string]any) map[string]any {
	out := make(map[string]any, len(sc.Fields))
	for _, f := range sc.Fields {
		w, _ := e.registry.Lookup(f.Type)
		v, ok := values[f.Key]
		if !ok {
			v = f.Default
		}
		out[f.Key] = w.Coerce(f, v)
	}
	return out
}

// Modules returns the module states in server order.
func (e *Engine) Modules() []*ModuleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*ModuleState, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.modules[id])
	}
	return out
}

// Module returns the state for one module.
func (e *Engine) Module(moduleID string) (*ModuleState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.modules[moduleID]
	return st, ok
}

// Draft returns a copy of the module's current draft, or nil when the
// module never loaded.
func (e *Engine) Draft(moduleID string) map[string]any {
	return e.drafts.GetDraft(moduleID)
}

// FieldValue returns the draft value for one field.
func (e *Engine) FieldValue(moduleID, key string) (any, bool) {
	return e.drafts.Get(moduleID, key)
}

// RenderField produces the display string for a field's current draft
// value using its widget.
func (e *Engine) RenderField(moduleID, key string) string {
	e.mu.Lock()
	st, ok := e.modules[moduleID]
	e.mu.Unlock()
	if !ok || st.Schema == nil {
		return ""
	}
	f, ok := st.Schema.Field(key)
	if !ok {
		return ""
	}
	w, _ := e.registry.Lookup(f.Type)
	v, _ := e.drafts.Get(moduleID, key)
	return w.Render(f, v)
}

// AdjustField applies one increment or decrement interaction to a field's
// draft value. Delta is +1 or -1. The new draft value is returned; fields
// with unknown types are read-only and come back unchanged.
func (e *Engine) AdjustField(moduleID, key string, delta int) (any, error) {
	e.mu.Lock()
	st, ok := e.modules[moduleID]
	e.mu.Unlock()
	if !ok || st.Schema == nil {
		return nil, fmt.Errorf("config module %q is not loaded", moduleID)
	}
	f, ok := st.Schema.Field(key)
	if !ok {
		return nil, fmt.Errorf("module %q has no field %q", moduleID, key)
	}
	w, _ := e.registry.Lookup(f.Type)
	cur, _ := e.drafts.Get(moduleID, key)
	next := w.Adjust(f, cur, delta)
	e.drafts.SetField(moduleID, key, next)
	return next, nil
}

// SetField writes a draft value directly, coercing it through the field's
// widget first.
func (e *Engine) SetField(moduleID, key string, value any) error {
	e.mu.Lock()
	st, ok := e.modules[moduleID]
	e.mu.Unlock()
	if !ok || st.Schema == nil {
		return fmt.Errorf("config module %q is not loaded", moduleID)
	}
	f, ok := st.Schema.Field(key)
	if !ok {
		return fmt.Errorf("module %q has no field %q", moduleID, key)
	}
	w, _ := e.registry.Lookup(f.Type)
	e.drafts.SetField(moduleID, key, w.Coerce(f, value))
	return nil
}

// Dirty reports whether the module's draft differs from the last
// server-confirmed values.
func (e *Engine) Dirty(moduleID string) bool {
	draft := e.drafts.GetDraft(moduleID)
	if draft == nil {
		return false
	}
	e.mu.Lock()
	base := e.baseline[moduleID]
	e.mu.Unlock()
	if len(draft) != len(base) {
		return true
	}
	for k, v := range draft {
		bv, ok := base[k]
		if !ok || fmt.Sprintf("%v", v) != fmt.Sprintf("%v", bv) {
			return true
		}
	}
	return false
}

// Revert discards local edits, restoring the module's draft to the last
// server-confirmed values.
func (e *Engine) Revert(moduleID string) {
	e.mu.Lock()
	base, ok := e.baseline[moduleID]
	e.mu.Unlock()
	if !ok {
		return
	}
	e.drafts.ReplaceDraft(moduleID, base)
}

// Save sends the module's entire draft to the controller and, on success,
// replaces the draft with the server's reconciled value set. On failure the
// draft is left untouched so the user's edits survive a retry. Concurrent
// saves of the same module are rejected.
func (e *Engine) Save(ctx context.Context, moduleID string) error {
	e.mu.Lock()
	st, ok := e.modules[moduleID]
	if !ok || st.Schema == nil {
		e.mu.Unlock()
		return fmt.Errorf("config module %q is not loaded", moduleID)
	}
	if st.Saving {
		e.mu.Unlock()
		return fmt.Errorf("module %q save already in progress", moduleID)
	}
	st.Saving = true
	sc := st.Schema
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		st.Saving = false
		e.mu.Unlock()
	}()

	draft := e.drafts.GetDraft(moduleID)
	if draft == nil {
		return fmt.Errorf("module %q has no draft to save", moduleID)
	}

	start := time.Now()
	reconciled, err := e.client.PutValues(ctx, moduleID, draft)
	logging.LogSave(moduleID, time.Since(start), err)
	if err != nil {
		return err
	}

	e.mu.Lock()
	coerced := e.coerceLocked(sc, reconciled)
	e.baseline[moduleID] = copyValues(coerced)
	e.mu.Unlock()
	e.drafts.ReplaceDraft(moduleID, coerced)
	return nil
}

func copyValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
