package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/portfoliodash/backend/internal/dto"
	"github.com/portfoliodash/backend/internal/errs"
	"github.com/portfoliodash/backend/internal/grid"
	"github.com/portfoliodash/backend/internal/models"
	"github.com/portfoliodash/backend/internal/registry"
)

// layoutRepository is the persistence seam for the active layout. The
// active layout is only ever written through the layout service.
type layoutRepository interface {
	Load(ctx context.Context, uid string) (models.Layout, error)
	Save(ctx context.Context, uid string, layout models.Layout) error
	SaveBreakpoint(ctx context.Context, uid string, bp models.Breakpoint, rects []models.GridRect) error
	Clear(ctx context.Context, uid string) error
	VisibilityFlags(ctx context.Context, uid string) (map[string]bool, error)
	SetVisibilityFlag(ctx context.Context, uid, instanceID string, hidden bool) error
}

// savedLayoutCatalog is the named-snapshot catalog.
type savedLayoutCatalog interface {
	Create(ctx context.Context, uid string, rec *models.SavedLayout) error
	Get(ctx context.Context, uid, id string) (*models.SavedLayout, error)
	List(ctx context.Context, uid string) ([]*models.SavedLayout, error)
	Update(ctx context.Context, uid string, rec *models.SavedLayout) error
	Delete(ctx context.Context, uid, id string) error
	ClearDefault(ctx context.Context, uid, keepID string) error
}

type layoutService struct {
	repo       layoutRepository
	catalog    savedLayoutCatalog
	visibility *VisibilityTracker
	columns    map[models.Breakpoint]int
}

func NewLayoutService(repo layoutRepository, catalog savedLayoutCatalog, visibility *VisibilityTracker, columns map[models.Breakpoint]int) *layoutService {
	if columns == nil {
		columns = models.DefaultColumns
	}
	return &layoutService{
		repo:       repo,
		catalog:    catalog,
		visibility: visibility,
		columns:    columns,
	}
}

// GetLayout returns the active layout. A user with no persisted state gets
// the shipped default template, compacted, without it being persisted yet.
func (s *layoutService) GetLayout(ctx context.Context, uid string) (models.Layout, error) {
	layout, err := s.repo.Load(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(layout) == 0 {
		layout = s.compactAll(registry.DefaultTemplate().LayoutConfig.Clone())
	}
	s.syncVisibility(ctx, uid, layout)
	return layout, nil
}

// UpdateBreakpoint replaces one breakpoint's rects with the client's live
// positions. No compaction here: compaction would fight interactive drags.
func (s *layoutService) UpdateBreakpoint(ctx context.Context, uid string, bp models.Breakpoint, rects []models.GridRect) error {
	if !bp.Valid() {
		return errs.NewValidationError("unknown breakpoint: " + string(bp))
	}
	if err := s.validateRects(bp, rects); err != nil {
		return err
	}
	if err := s.repo.SaveBreakpoint(ctx, uid, bp, rects); err != nil {
		return err
	}
	if layout, err := s.repo.Load(ctx, uid); err == nil {
		s.syncVisibility(ctx, uid, layout)
	}
	return nil
}

// AddWidget places a new instance of the type at the bottom of every
// breakpoint. A second instance of a single-instance type is a conflict
// and leaves the layout untouched.
func (s *layoutService) AddWidget(ctx context.Context, uid, typeID string) (string, models.Layout, error) {
	cfg, ok := registry.Lookup(typeID)
	if !ok {
		return "", nil, errs.NewValidationError("unknown widget type: " + typeID)
	}

	layout, err := s.repo.Load(ctx, uid)
	if err != nil {
		return "", nil, err
	}
	if len(layout) == 0 {
		layout = s.compactAll(registry.DefaultTemplate().LayoutConfig.Clone())
	}

	existing := layout.InstanceIDs()
	if !cfg.AllowMultiple && registry.HasInstance(typeID, existing) {
		return "", nil, errs.NewConflictError(fmt.Sprintf("widget %q is already on the dashboard", typeID))
	}

	instanceID := registry.NextInstanceID(typeID, existing)
	for _, bp := range models.Breakpoints {
		columns := s.columns[bp]
		size := cfg.DefaultSize
		w := size.W
		if w > columns {
			w = columns
		}
		rect := models.GridRect{
			ID:   instanceID,
			X:    0,
			Y:    grid.BottomY(layout[bp]),
			W:    w,
			H:    size.H,
			MinW: size.MinW,
			MinH: size.MinH,
			MaxH: size.MaxH,
		}
		layout[bp] = append(layout[bp], rect)
	}
	if err := s.repo.Save(ctx, uid, layout); err != nil {
		return "", nil, err
	}
	s.syncVisibility(ctx, uid, layout)
	return instanceID, layout, nil
}

// RemoveWidget filters the instance out of every breakpoint.
func (s *layoutService) RemoveWidget(ctx context.Context, uid, instanceID string) error {
	layout, err := s.repo.Load(ctx, uid)
	if err != nil {
		return err
	}
	changed := false
	for _, bp := range models.Breakpoints {
		rects := layout[bp]
		kept := make([]models.GridRect, 0, len(rects))
		for _, r := range rects {
			if r.ID != instanceID {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(rects) {
			continue
		}
		layout[bp] = kept
		changed = true
	}
	if !changed {
		return nil
	}
	if err := s.repo.Save(ctx, uid, layout); err != nil {
		return err
	}
	s.syncVisibility(ctx, uid, layout)
	return nil
}

// SetWidgetVisibility hides or shows one instance without touching its rect.
func (s *layoutService) SetWidgetVisibility(ctx context.Context, uid, instanceID string, hidden bool) error {
	if err := s.repo.SetVisibilityFlag(ctx, uid, instanceID, hidden); err != nil {
		return err
	}
	if layout, err := s.repo.Load(ctx, uid); err == nil {
		s.syncVisibility(ctx, uid, layout)
	}
	return nil
}

// ResetToDefault clears all persisted breakpoints and visibility flags,
// then reinstalls the shipped default template.
func (s *layoutService) ResetToDefault(ctx context.Context, uid string) (models.Layout, error) {
	if err := s.repo.Clear(ctx, uid); err != nil {
		return nil, err
	}
	return s.installLayout(ctx, uid, registry.DefaultTemplate().LayoutConfig)
}

// --- Saved layout catalog ---

func (s *layoutService) SaveLayout(ctx context.Context, uid string, req dto.SaveLayoutRequest) (*models.SavedLayout, error) {
	if req.Name == "" {
		return nil, errs.NewValidationError("layout name is required")
	}

	cfg := req.LayoutConfig
	if len(cfg) == 0 {
		active, err := s.repo.Load(ctx, uid)
		if err != nil {
			return nil, err
		}
		cfg = active
	}
	cfg = normalizeLayout(cfg)

	rec := &models.SavedLayout{
		ID:           uuid.New().String(),
		UserID:       uid,
		Name:         req.Name,
		Description:  req.Description,
		IsDefault:    req.IsDefault,
		LayoutConfig: cfg,
	}
	if err := s.catalog.Create(ctx, uid, rec); err != nil {
		return nil, err
	}
	if rec.IsDefault {
		if err := s.catalog.ClearDefault(ctx, uid, rec.ID); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (s *layoutService) GetSavedLayout(ctx context.Context, uid, id string) (*models.SavedLayout, error) {
	return s.catalog.Get(ctx, uid, id)
}

func (s *layoutService) ListSavedLayouts(ctx context.Context, uid string) ([]*models.SavedLayout, error) {
	return s.catalog.List(ctx, uid)
}

// UpdateSavedLayout applies a partial update; nil request fields keep the
// stored value. A non-empty LayoutConfig is the "save current layout into
// this slot" path and must carry all three breakpoints.
func (s *layoutService) UpdateSavedLayout(ctx context.Context, uid, id string, req dto.UpdateSavedLayoutRequest) (*models.SavedLayout, error) {
	rec, err := s.catalog.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, errs.NewValidationError("layout name cannot be empty")
		}
		rec.Name = *req.Name
	}
	if req.Description != nil {
		rec.Description = *req.Description
	}
	if req.IsDefault != nil {
		rec.IsDefault = *req.IsDefault
	}
	if len(req.LayoutConfig) > 0 {
		if err := s.validateFullLayout(req.LayoutConfig); err != nil {
			return nil, err
		}
		rec.LayoutConfig = req.LayoutConfig
	}
	if err := s.catalog.Update(ctx, uid, rec); err != nil {
		return nil, err
	}
	if req.IsDefault != nil && *req.IsDefault {
		if err := s.catalog.ClearDefault(ctx, uid, rec.ID); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (s *layoutService) DeleteSavedLayout(ctx context.Context, uid, id string) error {
	if _, err := s.catalog.Get(ctx, uid, id); err != nil {
		return err
	}
	return s.catalog.Delete(ctx, uid, id)
}

func (s *layoutService) DuplicateSavedLayout(ctx context.Context, uid, id string) (*models.SavedLayout, error) {
	src, err := s.catalog.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	copyRec := &models.SavedLayout{
		ID:           uuid.New().String(),
		UserID:       uid,
		Name:         src.Name + " (copy)",
		Description:  src.Description,
		IsDefault:    false,
		LayoutConfig: src.LayoutConfig.Clone(),
	}
	if err := s.catalog.Create(ctx, uid, copyRec); err != nil {
		return nil, err
	}
	return copyRec, nil
}

// ApplySavedLayout makes a saved snapshot the active layout. Like every
// layout loaded from an external source it is compacted first.
func (s *layoutService) ApplySavedLayout(ctx context.Context, uid, id string) (models.Layout, error) {
	rec, err := s.catalog.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	return s.installLayout(ctx, uid, rec.LayoutConfig)
}

// --- Templates ---

func (s *layoutService) ListTemplates() []models.LayoutTemplate {
	return registry.Templates
}

func (s *layoutService) ApplyTemplate(ctx context.Context, uid, templateID string) (models.Layout, error) {
	tpl, ok := registry.TemplateByID(templateID)
	if !ok {
		return nil, errs.NewNotFoundError("layout template not found: " + templateID)
	}
	return s.installLayout(ctx, uid, tpl.LayoutConfig)
}

// --- Import / export ---

func (s *layoutService) ExportLayout(ctx context.Context, uid, id string) (dto.LayoutExport, error) {
	rec, err := s.catalog.Get(ctx, uid, id)
	if err != nil {
		return dto.LayoutExport{}, err
	}
	return dto.LayoutExport{
		Name:         rec.Name,
		Description:  rec.Description,
		ExportedAt:   time.Now(),
		LayoutConfig: normalizeLayout(rec.LayoutConfig),
	}, nil
}

// ImportLayout validates the export, compacts each breakpoint and installs
// the result as the active layout. Validation failures leave the prior
// state fully intact.
func (s *layoutService) ImportLayout(ctx context.Context, uid string, export dto.LayoutExport) (models.Layout, error) {
	if err := s.validateFullLayout(export.LayoutConfig); err != nil {
		return nil, err
	}
	return s.installLayout(ctx, uid, export.LayoutConfig)
}

// --- Internal helpers ---

// installLayout compacts every breakpoint of an externally sourced layout
// and persists it as the active layout.
func (s *layoutService) installLayout(ctx context.Context, uid string, cfg models.Layout) (models.Layout, error) {
	layout := s.compactAll(cfg.Clone())
	if err := s.repo.Save(ctx, uid, layout); err != nil {
		return nil, err
	}
	s.syncVisibility(ctx, uid, layout)
	return layout, nil
}

func (s *layoutService) compactAll(layout models.Layout) models.Layout {
	out := make(models.Layout, len(models.Breakpoints))
	for _, bp := range models.Breakpoints {
		out[bp] = grid.Compact(layout[bp], s.columns[bp])
	}
	return out
}

// validateFullLayout requires all three breakpoints and in-bounds rects.
func (s *layoutService) validateFullLayout(cfg models.Layout) error {
	for _, bp := range models.Breakpoints {
		rects, ok := cfg[bp]
		if !ok {
			return errs.NewValidationError(fmt.Sprintf("layout_config is missing breakpoint %q", bp))
		}
		if err := s.validateRects(bp, rects); err != nil {
			return err
		}
	}
	return nil
}

func (s *layoutService) validateRects(bp models.Breakpoint, rects []models.GridRect) error {
	columns := s.columns[bp]
	for _, r := range rects {
		if r.ID == "" {
			return errs.NewValidationError("rect is missing a widget instance id")
		}
		if r.W < 1 || r.H < 1 || r.X < 0 || r.Y < 0 {
			return errs.NewValidationError(fmt.Sprintf("rect %q has a degenerate geometry", r.ID))
		}
		if r.X+r.W > columns {
			return errs.NewValidationError(fmt.Sprintf("rect %q exceeds %d columns on breakpoint %q", r.ID, columns, bp))
		}
	}
	return nil
}

// normalizeLayout guarantees each breakpoint key exists, so exports always
// carry the full lg/md/sm shape.
func normalizeLayout(cfg models.Layout) models.Layout {
	out := cfg.Clone()
	for _, bp := range models.Breakpoints {
		if out[bp] == nil {
			out[bp] = []models.GridRect{}
		}
	}
	return out
}

func (s *layoutService) syncVisibility(ctx context.Context, uid string, layout models.Layout) {
	if s.visibility == nil {
		return
	}
	hidden, err := s.repo.VisibilityFlags(ctx, uid)
	if err != nil {
		hidden = map[string]bool{}
	}
	s.visibility.Update(uid, layout, hidden)
}
