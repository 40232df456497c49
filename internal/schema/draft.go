package schema

import "sync"

// DraftStore holds the per-module editable value drafts. It is owned by the
// configuration engine; nothing else mutates drafts. Access goes through
// the three operations below so every mutation point is explicit.
//
// A draft is initialized from the server's values response and wholesale
// replaced by the server's reconciled values after a successful save.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]map[string]any
}

// NewDraftStore creates an empty draft store.
func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]map[string]any)}
}

// GetDraft returns a copy of the module's draft, or nil if the module has
// no draft loaded. Callers get a copy so widget code cannot mutate the
// store behind the engine's back.
func (d *DraftStore) GetDraft(moduleID string) map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	draft, ok := d.drafts[moduleID]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(draft))
	for k, v := range draft {
		out[k] = v
	}
	return out
}

// Get returns a single draft value.
func (d *DraftStore) Get(moduleID, key string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	draft, ok := d.drafts[moduleID]
	if !ok {
		return nil, false
	}
	v, ok := draft[key]
	return v, ok
}

// SetField updates one field of a module's draft. Setting a field on a
// module without a draft creates the draft.
func (d *DraftStore) SetField(moduleID, key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	draft, ok := d.drafts[moduleID]
	if !ok {
		draft = make(map[string]any)
		d.drafts[moduleID] = draft
	}
	draft[key] = value
}

// ReplaceDraft replaces a module's entire draft with the given values,
// copying them so the caller keeps ownership of its map.
func (d *DraftStore) ReplaceDraft(moduleID string, values map[string]any) {
	draft := make(map[string]any, len(values))
	for k, v := range values {
		draft[k] = v
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.drafts[moduleID] = draft
}

// Loaded reports whether a module has a draft.
func (d *DraftStore) Loaded(moduleID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.drafts[moduleID]
	return ok
}
