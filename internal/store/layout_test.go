package store

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"

	"github.com/portfoliodash/backend/internal/models"
)

func emulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLayoutStoreRoundTripWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	store := NewLayoutStore(client)
	uid := "layout-user"

	rects := []models.GridRect{
		{ID: "watchlist", X: 0, Y: 0, W: 4, H: 4},
		{ID: "notes", X: 4, Y: 0, W: 3, H: 3},
	}
	if err := store.SaveBreakpoint(ctx, uid, models.BreakpointLG, rects); err != nil {
		t.Fatalf("save breakpoint error: %v", err)
	}

	layout, err := store.Load(ctx, uid)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(layout[models.BreakpointLG]) != 2 {
		t.Fatalf("lg rects = %d, want 2", len(layout[models.BreakpointLG]))
	}
	if _, ok := layout[models.BreakpointMD]; ok {
		t.Error("unsaved breakpoint should be absent, not empty")
	}
	if got := layout[models.BreakpointLG][0]; got.ID != "watchlist" || got.W != 4 {
		t.Errorf("first rect = %+v", got)
	}
}

func TestLayoutStoreSaveAllBreakpointsWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	store := NewLayoutStore(client)
	uid := "save-all-user"

	layout := models.Layout{}
	for _, bp := range models.Breakpoints {
		layout[bp] = []models.GridRect{{ID: "watchlist", X: 0, Y: 0, W: 4, H: 4}}
	}
	if err := store.Save(ctx, uid, layout); err != nil {
		t.Fatalf("save error: %v", err)
	}

	loaded, err := store.Load(ctx, uid)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	for _, bp := range models.Breakpoints {
		if len(loaded[bp]) != 1 || loaded[bp][0].ID != "watchlist" {
			t.Errorf("breakpoint %s = %+v", bp, loaded[bp])
		}
	}
}

func TestLayoutStoreLoadEmptyWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	store := NewLayoutStore(client)

	layout, err := store.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(layout) != 0 {
		t.Errorf("expected empty layout, got %d breakpoints", len(layout))
	}
}

func TestLayoutStoreVisibilityFlagsWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	store := NewLayoutStore(client)
	uid := "flags-user"

	flags, err := store.VisibilityFlags(ctx, uid)
	if err != nil {
		t.Fatalf("visibility flags error: %v", err)
	}
	if len(flags) != 0 {
		t.Fatalf("expected no flags, got %v", flags)
	}

	if err := store.SetVisibilityFlag(ctx, uid, "watchlist", true); err != nil {
		t.Fatalf("set flag error: %v", err)
	}
	flags, err = store.VisibilityFlags(ctx, uid)
	if err != nil {
		t.Fatalf("visibility flags error: %v", err)
	}
	if !flags["watchlist"] {
		t.Error("watchlist should be flagged hidden")
	}

	// Unhiding removes the flag entirely.
	if err := store.SetVisibilityFlag(ctx, uid, "watchlist", false); err != nil {
		t.Fatalf("unset flag error: %v", err)
	}
	flags, err = store.VisibilityFlags(ctx, uid)
	if err != nil {
		t.Fatalf("visibility flags error: %v", err)
	}
	if _, ok := flags["watchlist"]; ok {
		t.Error("unhidden widget should have no flag")
	}
}

func TestLayoutStoreClearWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	store := NewLayoutStore(client)
	uid := "clear-user"

	for _, bp := range models.Breakpoints {
		if err := store.SaveBreakpoint(ctx, uid, bp, []models.GridRect{{ID: "notes", W: 3, H: 3}}); err != nil {
			t.Fatalf("save breakpoint error: %v", err)
		}
	}
	if err := store.SetVisibilityFlag(ctx, uid, "notes", true); err != nil {
		t.Fatalf("set flag error: %v", err)
	}

	if err := store.Clear(ctx, uid); err != nil {
		t.Fatalf("clear error: %v", err)
	}

	layout, err := store.Load(ctx, uid)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(layout) != 0 {
		t.Errorf("expected cleared layout, got %d breakpoints", len(layout))
	}
	flags, err := store.VisibilityFlags(ctx, uid)
	if err != nil {
		t.Fatalf("visibility flags error: %v", err)
	}
	if len(flags) != 0 {
		t.Errorf("expected cleared flags, got %v", flags)
	}
}
