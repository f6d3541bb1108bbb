package services

import (
	"context"
	"errors"
	"testing"

	"github.com/portfoliodash/backend/internal/dto"
	"github.com/portfoliodash/backend/internal/errs"
	"github.com/portfoliodash/backend/internal/models"
	"github.com/portfoliodash/backend/pkg/helpers"
)

type fakeLayoutRepo struct {
	layouts   models.Layout
	hidden    map[string]bool
	saveCalls int
	cleared   bool
	loadErr   error
	saveErr   error
}

func newFakeLayoutRepo() *fakeLayoutRepo {
	return &fakeLayoutRepo{
		layouts: models.Layout{},
		hidden:  map[string]bool{},
	}
}

func (f *fakeLayoutRepo) Load(ctx context.Context, uid string) (models.Layout, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.layouts.Clone(), nil
}

func (f *fakeLayoutRepo) Save(ctx context.Context, uid string, layout models.Layout) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saveCalls++
	f.layouts = layout.Clone()
	return nil
}

func (f *fakeLayoutRepo) SaveBreakpoint(ctx context.Context, uid string, bp models.Breakpoint, rects []models.GridRect) error {
	f.saveCalls++
	f.layouts[bp] = append([]models.GridRect(nil), rects...)
	return nil
}

func (f *fakeLayoutRepo) Clear(ctx context.Context, uid string) error {
	f.cleared = true
	f.layouts = models.Layout{}
	f.hidden = map[string]bool{}
	return nil
}

func (f *fakeLayoutRepo) VisibilityFlags(ctx context.Context, uid string) (map[string]bool, error) {
	out := make(map[string]bool, len(f.hidden))
	for k, v := range f.hidden {
		out[k] = v
	}
	return out, nil
}

func (f *fakeLayoutRepo) SetVisibilityFlag(ctx context.Context, uid, instanceID string, hidden bool) error {
	if hidden {
		f.hidden[instanceID] = true
	} else {
		delete(f.hidden, instanceID)
	}
	return nil
}

type fakeCatalog struct {
	records map[string]*models.SavedLayout
	order   []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{records: map[string]*models.SavedLayout{}}
}

func (f *fakeCatalog) Create(ctx context.Context, uid string, rec *models.SavedLayout) error {
	cp := *rec
	f.records[rec.ID] = &cp
	f.order = append(f.order, rec.ID)
	return nil
}

func (f *fakeCatalog) Get(ctx context.Context, uid, id string) (*models.SavedLayout, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, errs.NewNotFoundError("saved layout not found")
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeCatalog) List(ctx context.Context, uid string) ([]*models.SavedLayout, error) {
	out := make([]*models.SavedLayout, 0, len(f.order))
	for _, id := range f.order {
		cp := *f.records[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeCatalog) Update(ctx context.Context, uid string, rec *models.SavedLayout) error {
	if _, ok := f.records[rec.ID]; !ok {
		return errs.NewNotFoundError("saved layout not found")
	}
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *fakeCatalog) Delete(ctx context.Context, uid, id string) error {
	delete(f.records, id)
	return nil
}

func (f *fakeCatalog) ClearDefault(ctx context.Context, uid, keepID string) error {
	for id, rec := range f.records {
		if id != keepID && rec.IsDefault {
			rec.IsDefault = false
		}
	}
	return nil
}

func newTestLayoutService(repo *fakeLayoutRepo, catalog *fakeCatalog) *layoutService {
	return NewLayoutService(repo, catalog, NewVisibilityTracker(), nil)
}

func seedLayout(ids ...string) models.Layout {
	layout := models.Layout{}
	for _, bp := range models.Breakpoints {
		rects := make([]models.GridRect, 0, len(ids))
		for i, id := range ids {
			rects = append(rects, models.GridRect{ID: id, X: 0, Y: i * 2, W: 3, H: 2})
		}
		layout[bp] = rects
	}
	return layout
}

func TestGetLayoutFallsBackToDefaultTemplate(t *testing.T) {
	repo := newFakeLayoutRepo()
	svc := newTestLayoutService(repo, newFakeCatalog())

	layout, err := svc.GetLayout(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetLayout: %v", err)
	}
	for _, bp := range models.Breakpoints {
		if len(layout[bp]) == 0 {
			t.Errorf("default layout has no rects for breakpoint %q", bp)
		}
	}
	if repo.saveCalls != 0 {
		t.Error("the default template should not be persisted on read")
	}
}

func TestAddWidgetUnknownType(t *testing.T) {
	svc := newTestLayoutService(newFakeLayoutRepo(), newFakeCatalog())

	_, _, err := svc.AddWidget(context.Background(), "u1", "sparkline")
	var validationErr *errs.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAddWidgetSingleInstanceConflict(t *testing.T) {
	repo := newFakeLayoutRepo()
	repo.layouts = seedLayout("watchlist")
	svc := newTestLayoutService(repo, newFakeCatalog())

	_, _, err := svc.AddWidget(context.Background(), "u1", "watchlist")
	var conflictErr *errs.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if repo.saveCalls != 0 {
		t.Error("a rejected add must not touch the persisted layout")
	}
}

func TestAddWidgetFailedSaveLeavesLayoutUntouched(t *testing.T) {
	repo := newFakeLayoutRepo()
	repo.layouts = seedLayout("notes")
	repo.saveErr = errs.NewDatabaseError("update", "unavailable", errors.New("deadline"))
	svc := newTestLayoutService(repo, newFakeCatalog())

	_, _, err := svc.AddWidget(context.Background(), "u1", "watchlist")
	var dbErr *errs.DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected DatabaseError, got %v", err)
	}
	// The instance must not land on any breakpoint when the write fails.
	for _, bp := range models.Breakpoints {
		for _, r := range repo.layouts[bp] {
			if r.ID == "watchlist" {
				t.Fatalf("breakpoint %s has the new widget after a failed save", bp)
			}
		}
	}
}

func TestAddWidgetAssignsSuffixedInstanceID(t *testing.T) {
	repo := newFakeLayoutRepo()
	repo.layouts = seedLayout("notes", "watchlist")
	svc := newTestLayoutService(repo, newFakeCatalog())

	id, layout, err := svc.AddWidget(context.Background(), "u1", "notes")
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	if id != "notes-2" {
		t.Errorf("instance id = %q, want notes-2", id)
	}
	for _, bp := range models.Breakpoints {
		var added *models.GridRect
		for i := range layout[bp] {
			if layout[bp][i].ID == id {
				added = &layout[bp][i]
			}
		}
		if added == nil {
			t.Fatalf("new instance missing from breakpoint %q", bp)
		}
		if added.X != 0 || added.Y != 4 {
			t.Errorf("breakpoint %q: new rect at (%d,%d), want (0,4)", bp, added.X, added.Y)
		}
	}
}

func TestAddWidgetClampsWidthToColumns(t *testing.T) {
	repo := newFakeLayoutRepo()
	repo.layouts = seedLayout("notes")
	svc := newTestLayoutService(repo, newFakeCatalog())

	// performance-chart defaults to 6 wide, wider than the 4-column sm grid.
	id, layout, err := svc.AddWidget(context.Background(), "u1", "performance-chart")
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	for _, r := range layout[models.BreakpointSM] {
		if r.ID == id && r.W != 4 {
			t.Errorf("sm width = %d, want clamped to 4", r.W)
		}
	}
	for _, r := range layout[models.BreakpointLG] {
		if r.ID == id && r.W != 6 {
			t.Errorf("lg width = %d, want 6", r.W)
		}
	}
}

func TestRemoveWidgetDropsInstanceEverywhere(t *testing.T) {
	repo := newFakeLayoutRepo()
	repo.layouts = seedLayout("notes", "watchlist")
	svc := newTestLayoutService(repo, newFakeCatalog())

	if err := svc.RemoveWidget(context.Background(), "u1", "watchlist"); err != nil {
		t.Fatalf("RemoveWidget: %v", err)
	}
	for _, bp := range models.Breakpoints {
		for _, r := range repo.layouts[bp] {
			if r.ID == "watchlist" {
				t.Errorf("watchlist still present on breakpoint %q", bp)
			}
		}
		if len(repo.layouts[bp]) != 1 {
			t.Errorf("breakpoint %q has %d rects, want 1", bp, len(repo.layouts[bp]))
		}
	}
}

func TestUpdateBreakpointValidation(t *testing.T) {
	repo := newFakeLayoutRepo()
	svc := newTestLayoutService(repo, newFakeCatalog())

	err := svc.UpdateBreakpoint(context.Background(), "u1", "xl", nil)
	var validationErr *errs.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("unknown breakpoint: expected ValidationError, got %v", err)
	}

	// 4-column sm grid cannot hold a rect spanning columns 2..7.
	err = svc.UpdateBreakpoint(context.Background(), "u1", models.BreakpointSM,
		[]models.GridRect{{ID: "notes", X: 2, Y: 0, W: 6, H: 2}})
	if !errors.As(err, &validationErr) {
		t.Fatalf("out-of-bounds rect: expected ValidationError, got %v", err)
	}
	if repo.saveCalls != 0 {
		t.Error("rejected update must not persist")
	}
}

func TestUpdateBreakpointPersistsWithoutCompaction(t *testing.T) {
	repo := newFakeLayoutRepo()
	repo.layouts = seedLayout("notes")
	svc := newTestLayoutService(repo, newFakeCatalog())

	// The client may legitimately leave a gap mid-drag.
	rects := []models.GridRect{{ID: "notes", X: 0, Y: 5, W: 3, H: 2}}
	if err := svc.UpdateBreakpoint(context.Background(), "u1", models.BreakpointLG, rects); err != nil {
		t.Fatalf("UpdateBreakpoint: %v", err)
	}
	if got := repo.layouts[models.BreakpointLG][0].Y; got != 5 {
		t.Errorf("persisted y = %d, want 5 (no compaction on live updates)", got)
	}
}

func TestResetToDefault(t *testing.T) {
	repo := newFakeLayoutRepo()
	repo.layouts = seedLayout("notes")
	repo.hidden["notes"] = true
	svc := newTestLayoutService(repo, newFakeCatalog())

	layout, err := svc.ResetToDefault(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ResetToDefault: %v", err)
	}
	if !repo.cleared {
		t.Error("reset should clear persisted state first")
	}
	for _, bp := range models.Breakpoints {
		if len(layout[bp]) == 0 {
			t.Errorf("reset layout has no rects for breakpoint %q", bp)
		}
	}
}

func TestSaveLayoutSnapshotsActiveLayout(t *testing.T) {
	repo := newFakeLayoutRepo()
	repo.layouts = seedLayout("notes", "watchlist")
	catalog := newFakeCatalog()
	svc := newTestLayoutService(repo, catalog)

	rec, err := svc.SaveLayout(context.Background(), "u1", dto.SaveLayoutRequest{Name: "My setup"})
	if err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	if rec.ID == "" {
		t.Error("saved layout should get an id")
	}
	if len(rec.LayoutConfig[models.BreakpointLG]) != 2 {
		t.Errorf("snapshot lg rects = %d, want 2", len(rec.LayoutConfig[models.BreakpointLG]))
	}

	_, err = svc.SaveLayout(context.Background(), "u1", dto.SaveLayoutRequest{})
	var validationErr *errs.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("missing name: expected ValidationError, got %v", err)
	}
}

func TestSaveLayoutDefaultFlagIsExclusive(t *testing.T) {
	repo := newFakeLayoutRepo()
	repo.layouts = seedLayout("notes")
	catalog := newFakeCatalog()
	svc := newTestLayoutService(repo, catalog)

	first, err := svc.SaveLayout(context.Background(), "u1", dto.SaveLayoutRequest{Name: "A", IsDefault: true})
	if err != nil {
		t.Fatalf("SaveLayout A: %v", err)
	}
	second, err := svc.SaveLayout(context.Background(), "u1", dto.SaveLayoutRequest{Name: "B", IsDefault: true})
	if err != nil {
		t.Fatalf("SaveLayout B: %v", err)
	}

	if catalog.records[first.ID].IsDefault {
		t.Error("first layout should have lost its default flag")
	}
	if !catalog.records[second.ID].IsDefault {
		t.Error("second layout should be the default")
	}
}

func TestUpdateSavedLayoutPartial(t *testing.T) {
	repo := newFakeLayoutRepo()
	repo.layouts = seedLayout("notes")
	catalog := newFakeCatalog()
	svc := newTestLayoutService(repo, catalog)

	rec, err := svc.SaveLayout(context.Background(), "u1",
		dto.SaveLayoutRequest{Name: "A", Description: "work dashboard"})
	if err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}

	updated, err := svc.UpdateSavedLayout(context.Background(), "u1", rec.ID,
		dto.UpdateSavedLayoutRequest{Name: helpers.Ptr("B")})
	if err != nil {
		t.Fatalf("UpdateSavedLayout: %v", err)
	}
	if updated.Name != "B" {
		t.Errorf("name = %q, want B", updated.Name)
	}
	if updated.Description != "work dashboard" {
		t.Errorf("description = %q, want untouched", updated.Description)
	}

	_, err = svc.UpdateSavedLayout(context.Background(), "u1", rec.ID,
		dto.UpdateSavedLayoutRequest{Name: helpers.Ptr("")})
	var validationErr *errs.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("empty name: expected ValidationError, got %v", err)
	}
}

func TestDuplicateSavedLayout(t *testing.T) {
	repo := newFakeLayoutRepo()
	repo.layouts = seedLayout("notes")
	catalog := newFakeCatalog()
	svc := newTestLayoutService(repo, catalog)

	rec, err := svc.SaveLayout(context.Background(), "u1",
		dto.SaveLayoutRequest{Name: "A", IsDefault: true})
	if err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}

	dup, err := svc.DuplicateSavedLayout(context.Background(), "u1", rec.ID)
	if err != nil {
		t.Fatalf("DuplicateSavedLayout: %v", err)
	}
	if dup.ID == rec.ID {
		t.Error("duplicate must get its own id")
	}
	if dup.Name != "A (copy)" {
		t.Errorf("duplicate name = %q, want %q", dup.Name, "A (copy)")
	}
	if dup.IsDefault {
		t.Error("duplicate must never inherit the default flag")
	}
}

func TestApplySavedLayoutCompacts(t *testing.T) {
	repo := newFakeLayoutRepo()
	catalog := newFakeCatalog()
	svc := newTestLayoutService(repo, catalog)

	gapped := models.Layout{}
	for _, bp := range models.Breakpoints {
		gapped[bp] = []models.GridRect{{ID: "notes", X: 0, Y: 7, W: 3, H: 2}}
	}
	saved := &models.SavedLayout{ID: "s1", Name: "gapped", LayoutConfig: gapped}
	if err := catalog.Create(context.Background(), "u1", saved); err != nil {
		t.Fatalf("seed: %v", err)
	}

	layout, err := svc.ApplySavedLayout(context.Background(), "u1", "s1")
	if err != nil {
		t.Fatalf("ApplySavedLayout: %v", err)
	}
	if got := layout[models.BreakpointLG][0].Y; got != 0 {
		t.Errorf("applied rect y = %d, want 0 after compaction", got)
	}
	if got := repo.layouts[models.BreakpointLG][0].Y; got != 0 {
		t.Errorf("persisted rect y = %d, want 0", got)
	}
}

func TestApplyTemplateUnknown(t *testing.T) {
	svc := newTestLayoutService(newFakeLayoutRepo(), newFakeCatalog())

	_, err := svc.ApplyTemplate(context.Background(), "u1", "no-such-template")
	var notFoundErr *errs.NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestImportLayoutRequiresAllBreakpoints(t *testing.T) {
	repo := newFakeLayoutRepo()
	svc := newTestLayoutService(repo, newFakeCatalog())

	export := dto.LayoutExport{
		Name: "partial",
		LayoutConfig: models.Layout{
			models.BreakpointLG: {{ID: "notes", X: 0, Y: 0, W: 3, H: 2}},
		},
	}
	_, err := svc.ImportLayout(context.Background(), "u1", export)
	var validationErr *errs.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if repo.saveCalls != 0 {
		t.Error("a rejected import must leave the active layout untouched")
	}
}

func TestImportLayoutCompactsAndPersists(t *testing.T) {
	repo := newFakeLayoutRepo()
	svc := newTestLayoutService(repo, newFakeCatalog())

	cfg := models.Layout{}
	for _, bp := range models.Breakpoints {
		cfg[bp] = []models.GridRect{{ID: "notes", X: 0, Y: 3, W: 3, H: 2}}
	}
	layout, err := svc.ImportLayout(context.Background(), "u1", dto.LayoutExport{Name: "in", LayoutConfig: cfg})
	if err != nil {
		t.Fatalf("ImportLayout: %v", err)
	}
	if got := layout[models.BreakpointMD][0].Y; got != 0 {
		t.Errorf("imported rect y = %d, want 0", got)
	}
	if repo.saveCalls != 1 {
		t.Errorf("saves = %d, want a single full-layout write", repo.saveCalls)
	}
	for _, bp := range models.Breakpoints {
		if len(repo.layouts[bp]) != 1 {
			t.Errorf("breakpoint %s not persisted", bp)
		}
	}
}

func TestExportLayoutCarriesAllBreakpoints(t *testing.T) {
	repo := newFakeLayoutRepo()
	catalog := newFakeCatalog()
	svc := newTestLayoutService(repo, catalog)

	saved := &models.SavedLayout{
		ID:   "s1",
		Name: "sparse",
		LayoutConfig: models.Layout{
			models.BreakpointLG: {{ID: "notes", X: 0, Y: 0, W: 3, H: 2}},
		},
	}
	if err := catalog.Create(context.Background(), "u1", saved); err != nil {
		t.Fatalf("seed: %v", err)
	}

	export, err := svc.ExportLayout(context.Background(), "u1", "s1")
	if err != nil {
		t.Fatalf("ExportLayout: %v", err)
	}
	for _, bp := range models.Breakpoints {
		if export.LayoutConfig[bp] == nil {
			t.Errorf("export missing breakpoint %q", bp)
		}
	}
	if export.ExportedAt.IsZero() {
		t.Error("export should be timestamped")
	}
}
