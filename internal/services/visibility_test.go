package services

import (
	"testing"

	"github.com/portfoliodash/backend/internal/models"
)

func visibilityLayout(ids ...string) models.Layout {
	rects := make([]models.GridRect, 0, len(ids))
	for i, id := range ids {
		rects = append(rects, models.GridRect{ID: id, X: 0, Y: i * 2, W: 3, H: 2})
	}
	return models.Layout{models.BreakpointLG: rects}
}

func TestVisibilityTrackerDerivesTypeSet(t *testing.T) {
	tracker := NewVisibilityTracker()

	layout := visibilityLayout("watchlist", "notes-2", "notes", "total-value-3")
	if changed := tracker.Update("u1", layout, nil); !changed {
		t.Fatal("first update should report a change")
	}

	got := tracker.Visible("u1")
	want := []string{"notes", "total-value", "watchlist"}
	if len(got) != len(want) {
		t.Fatalf("visible = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visible = %v, want %v", got, want)
		}
	}
}

func TestVisibilityTrackerIgnoresHiddenAndUnknown(t *testing.T) {
	tracker := NewVisibilityTracker()

	layout := visibilityLayout("watchlist", "notes", "mystery-widget")
	tracker.Update("u1", layout, map[string]bool{"watchlist": true})

	got := tracker.Visible("u1")
	if len(got) != 1 || got[0] != "notes" {
		t.Errorf("visible = %v, want [notes]", got)
	}
}

func TestVisibilityTrackerHiddenInstanceKeepsTypeAlive(t *testing.T) {
	tracker := NewVisibilityTracker()

	// One notes instance hidden, one still showing.
	layout := visibilityLayout("notes", "notes-2")
	tracker.Update("u1", layout, map[string]bool{"notes-2": true})

	got := tracker.Visible("u1")
	if len(got) != 1 || got[0] != "notes" {
		t.Errorf("visible = %v, want [notes]", got)
	}
}

func TestVisibilityTrackerChangeHook(t *testing.T) {
	tracker := NewVisibilityTracker()
	var fired int
	tracker.SetOnChange(func(uid string) { fired++ })

	layout := visibilityLayout("notes")
	tracker.Update("u1", layout, nil)
	if fired != 1 {
		t.Fatalf("hook fired %d times after first update, want 1", fired)
	}

	// Same set again: no change, no hook.
	tracker.Update("u1", layout, nil)
	if fired != 1 {
		t.Errorf("hook fired %d times after no-op update, want 1", fired)
	}

	tracker.Update("u1", visibilityLayout("notes", "watchlist"), nil)
	if fired != 2 {
		t.Errorf("hook fired %d times after set grew, want 2", fired)
	}
}
