package services

import (
	"sort"
	"sync"

	"github.com/portfoliodash/backend/internal/models"
	"github.com/portfoliodash/backend/internal/registry"
)

// VisibilityTracker derives, per user, the set of widget types currently on
// screen. A widget counts as visible once its rect is part of the rendered
// layout and at least one of its instances is not hidden; scroll position
// plays no role. The visible set is what the batch fetcher keys on.
type VisibilityTracker struct {
	mu      sync.RWMutex
	visible map[string][]string // uid -> sorted widget type ids

	// onChange, when set, runs outside the lock after the visible set of a
	// user actually changed.
	onChange func(uid string)
}

func NewVisibilityTracker() *VisibilityTracker {
	return &VisibilityTracker{visible: make(map[string][]string)}
}

// SetOnChange registers the change hook. Must be called during wiring,
// before concurrent use.
func (t *VisibilityTracker) SetOnChange(fn func(uid string)) {
	t.onChange = fn
}

// Update recomputes the visible type set from the layout and per-instance
// hidden flags. Returns true when the set changed.
func (t *VisibilityTracker) Update(uid string, layout models.Layout, hidden map[string]bool) bool {
	types := make(map[string]bool)
	for _, instanceID := range layout.InstanceIDs() {
		if hidden[instanceID] {
			continue
		}
		base := registry.BaseType(instanceID)
		if _, ok := registry.Lookup(base); ok {
			types[base] = true
		}
	}
	next := make([]string, 0, len(types))
	for typeID := range types {
		next = append(next, typeID)
	}
	sort.Strings(next)

	t.mu.Lock()
	prev := t.visible[uid]
	changed := !equalStrings(prev, next)
	if changed {
		t.visible[uid] = next
	}
	t.mu.Unlock()

	if changed && t.onChange != nil {
		t.onChange(uid)
	}
	return changed
}

// Visible returns the user's current visible widget type ids, sorted.
func (t *VisibilityTracker) Visible(uid string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.visible[uid]))
	copy(out, t.visible[uid])
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
