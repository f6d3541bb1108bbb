package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/portfoliodash/backend/internal/dto"
	"github.com/portfoliodash/backend/internal/middleware"
	"github.com/portfoliodash/backend/internal/models"
	"github.com/portfoliodash/backend/internal/registry"
	"github.com/portfoliodash/backend/internal/response"
)

type layoutService interface {
	GetLayout(ctx context.Context, uid string) (models.Layout, error)
	UpdateBreakpoint(ctx context.Context, uid string, bp models.Breakpoint, rects []models.GridRect) error
	AddWidget(ctx context.Context, uid, typeID string) (string, models.Layout, error)
	RemoveWidget(ctx context.Context, uid, instanceID string) error
	SetWidgetVisibility(ctx context.Context, uid, instanceID string, hidden bool) error
	ResetToDefault(ctx context.Context, uid string) (models.Layout, error)

	SaveLayout(ctx context.Context, uid string, req dto.SaveLayoutRequest) (*models.SavedLayout, error)
	GetSavedLayout(ctx context.Context, uid, id string) (*models.SavedLayout, error)
	ListSavedLayouts(ctx context.Context, uid string) ([]*models.SavedLayout, error)
	UpdateSavedLayout(ctx context.Context, uid, id string, req dto.UpdateSavedLayoutRequest) (*models.SavedLayout, error)
	DeleteSavedLayout(ctx context.Context, uid, id string) error
	DuplicateSavedLayout(ctx context.Context, uid, id string) (*models.SavedLayout, error)
	ApplySavedLayout(ctx context.Context, uid, id string) (models.Layout, error)

	ListTemplates() []models.LayoutTemplate
	ApplyTemplate(ctx context.Context, uid, templateID string) (models.Layout, error)

	ExportLayout(ctx context.Context, uid, id string) (dto.LayoutExport, error)
	ImportLayout(ctx context.Context, uid string, export dto.LayoutExport) (models.Layout, error)
}

type dashboardHandlers struct {
	ResponseHandler response.ResponseHandler
	LayoutSvc       layoutService
}

func NewDashboardHandlers(deps *Deps) *dashboardHandlers {
	return &dashboardHandlers{
		ResponseHandler: deps.ResponseHandler,
		LayoutSvc:       deps.LayoutSvc,
	}
}

func (h *dashboardHandlers) DashboardRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetLayout)
	r.Put("/layout/{breakpoint}", h.UpdateBreakpoint)
	r.Post("/reset", h.ResetLayout)
	r.Post("/widgets", h.AddWidget)
	r.Delete("/widgets/{instanceId}", h.RemoveWidget)
	r.Put("/widgets/{instanceId}/visibility", h.SetWidgetVisibility)
	r.Get("/widget-types", h.GetWidgetTypes)

	r.Get("/layouts", h.ListSavedLayouts)
	r.Post("/layouts", h.SaveLayout)
	r.Post("/layouts/import", h.ImportLayout) // must be before /{layoutId}
	r.Get("/layouts/{layoutId}", h.GetSavedLayout)
	r.Put("/layouts/{layoutId}", h.UpdateSavedLayout)
	r.Delete("/layouts/{layoutId}", h.DeleteSavedLayout)
	r.Post("/layouts/{layoutId}/duplicate", h.DuplicateSavedLayout)
	r.Post("/layouts/{layoutId}/apply", h.ApplySavedLayout)
	r.Get("/layouts/{layoutId}/export", h.ExportLayout)

	r.Get("/templates", h.ListTemplates)
	r.Post("/templates/{templateId}/apply", h.ApplyTemplate)
	return r
}

func (h *dashboardHandlers) GetLayout(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	layout, err := h.LayoutSvc.GetLayout(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, layout)
}

func (h *dashboardHandlers) UpdateBreakpoint(w http.ResponseWriter, r *http.Request) {
	bp := models.Breakpoint(chi.URLParam(r, "breakpoint"))
	var req dto.UpdateBreakpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	if err := h.LayoutSvc.UpdateBreakpoint(r.Context(), uid, bp, req.Rects); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *dashboardHandlers) ResetLayout(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	layout, err := h.LayoutSvc.ResetToDefault(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, layout)
}

func (h *dashboardHandlers) AddWidget(w http.ResponseWriter, r *http.Request) {
	var req dto.AddWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	instanceID, layout, err := h.LayoutSvc.AddWidget(r.Context(), uid, req.Type)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, dto.AddWidgetResponse{
		InstanceID: instanceID,
		Layout:     layout,
	})
}

func (h *dashboardHandlers) RemoveWidget(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceId")
	uid := middleware.UID(r.Context())
	if err := h.LayoutSvc.RemoveWidget(r.Context(), uid, instanceID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *dashboardHandlers) SetWidgetVisibility(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceId")
	var req dto.WidgetVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	if err := h.LayoutSvc.SetWidgetVisibility(r.Context(), uid, instanceID, req.Hidden); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

// GetWidgetTypes returns the widget catalog so the client can render its
// "add widget" picker without hardcoding types.
func (h *dashboardHandlers) GetWidgetTypes(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, registry.List())
}

func (h *dashboardHandlers) ListSavedLayouts(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	layouts, err := h.LayoutSvc.ListSavedLayouts(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, layouts)
}

func (h *dashboardHandlers) SaveLayout(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveLayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	rec, err := h.LayoutSvc.SaveLayout(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, rec)
}

func (h *dashboardHandlers) GetSavedLayout(w http.ResponseWriter, r *http.Request) {
	layoutID := chi.URLParam(r, "layoutId")
	uid := middleware.UID(r.Context())
	rec, err := h.LayoutSvc.GetSavedLayout(r.Context(), uid, layoutID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, rec)
}

func (h *dashboardHandlers) UpdateSavedLayout(w http.ResponseWriter, r *http.Request) {
	layoutID := chi.URLParam(r, "layoutId")
	var req dto.UpdateSavedLayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	rec, err := h.LayoutSvc.UpdateSavedLayout(r.Context(), uid, layoutID, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, rec)
}

func (h *dashboardHandlers) DeleteSavedLayout(w http.ResponseWriter, r *http.Request) {
	layoutID := chi.URLParam(r, "layoutId")
	uid := middleware.UID(r.Context())
	if err := h.LayoutSvc.DeleteSavedLayout(r.Context(), uid, layoutID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *dashboardHandlers) DuplicateSavedLayout(w http.ResponseWriter, r *http.Request) {
	layoutID := chi.URLParam(r, "layoutId")
	uid := middleware.UID(r.Context())
	rec, err := h.LayoutSvc.DuplicateSavedLayout(r.Context(), uid, layoutID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, rec)
}

func (h *dashboardHandlers) ApplySavedLayout(w http.ResponseWriter, r *http.Request) {
	layoutID := chi.URLParam(r, "layoutId")
	uid := middleware.UID(r.Context())
	layout, err := h.LayoutSvc.ApplySavedLayout(r.Context(), uid, layoutID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, layout)
}

func (h *dashboardHandlers) ExportLayout(w http.ResponseWriter, r *http.Request) {
	layoutID := chi.URLParam(r, "layoutId")
	uid := middleware.UID(r.Context())
	export, err := h.LayoutSvc.ExportLayout(r.Context(), uid, layoutID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, export)
}

func (h *dashboardHandlers) ImportLayout(w http.ResponseWriter, r *http.Request) {
	var export dto.LayoutExport
	if err := json.NewDecoder(r.Body).Decode(&export); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	layout, err := h.LayoutSvc.ImportLayout(r.Context(), uid, export)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, layout)
}

func (h *dashboardHandlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.LayoutSvc.ListTemplates())
}

func (h *dashboardHandlers) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateId")
	uid := middleware.UID(r.Context())
	layout, err := h.LayoutSvc.ApplyTemplate(r.Context(), uid, templateID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, layout)
}
