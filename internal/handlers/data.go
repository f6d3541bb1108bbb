package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/portfoliodash/backend/internal/dto"
	"github.com/portfoliodash/backend/internal/errs"
	"github.com/portfoliodash/backend/internal/middleware"
	"github.com/portfoliodash/backend/internal/response"
	"github.com/portfoliodash/backend/pkg/logger"
)

type batchService interface {
	FetchBatch(ctx context.Context, req dto.BatchDataRequest, visible []string) (*dto.BatchSnapshot, error)
	LastSnapshot(portfolioID string, visible []string, includeSold bool) (*dto.BatchSnapshot, bool)
}

type priceService interface {
	FetchPrices(ctx context.Context, symbols []string) ([]dto.PriceQuote, error)
}

type visibleSetSource interface {
	Visible(uid string) []string
}

type refreshHub interface {
	TrackBatch(ctx context.Context, uid string, req dto.BatchDataRequest, visible []string)
	TrackSymbols(ctx context.Context, uid string, symbols []string)
	OnVisible(ctx context.Context, uid string)
	Manual(ctx context.Context, uid, stream string) bool
	Status(ctx context.Context, uid string) dto.RefreshStatusResponse
}

type dataHandlers struct {
	ResponseHandler response.ResponseHandler
	BatchSvc        batchService
	PriceSvc        priceService
	VisibleSet      visibleSetSource
	Hub             refreshHub
}

func NewDataHandlers(deps *Deps) *dataHandlers {
	return &dataHandlers{
		ResponseHandler: deps.ResponseHandler,
		BatchSvc:        deps.BatchSvc,
		PriceSvc:        deps.PriceSvc,
		VisibleSet:      deps.VisibleSet,
		Hub:             deps.Hub,
	}
}

func (h *dataHandlers) DataRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/batch", h.FetchBatch)
	r.Get("/prices", h.FetchPrices)
	r.Post("/refresh", h.Refresh)
	r.Get("/refresh/status", h.RefreshStatus)
	r.Post("/visible", h.TabVisible)
	return r
}

// FetchBatch serves the deduplicated data needs of all visible widgets in
// one call. On a transport failure the previous snapshot is served instead
// of an error, so the dashboard keeps showing data.
func (h *dataHandlers) FetchBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())

	visible := req.VisibleWidgets
	if len(visible) == 0 {
		visible = h.VisibleSet.Visible(uid)
	}
	if len(visible) == 0 {
		h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, &dto.BatchSnapshot{
			Data: map[string]json.RawMessage{},
		})
		return
	}

	snap, err := h.BatchSvc.FetchBatch(r.Context(), req, visible)
	if err != nil {
		var transportErr *errs.TransportError
		if errors.As(err, &transportErr) {
			if stale, ok := h.BatchSvc.LastSnapshot(req.PortfolioID, visible, req.IncludeSold); ok {
				logger.FromContext(r.Context()).Warn("serving stale batch snapshot",
					"service", transportErr.Service, "error", transportErr.Message)
				h.Hub.TrackBatch(r.Context(), uid, req, visible)
				h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, stale)
				return
			}
		}
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.Hub.TrackBatch(r.Context(), uid, req, visible)
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, snap)
}

func (h *dataHandlers) FetchPrices(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	symbols := make([]string, 0)
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, strings.ToUpper(s))
		}
	}
	if len(symbols) == 0 {
		h.ResponseHandler.HandleError(w, r,
			errs.NewValidationError("symbols query parameter is required"))
		return
	}

	quotes, err := h.PriceSvc.FetchPrices(r.Context(), symbols)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	h.Hub.TrackSymbols(r.Context(), uid, symbols)
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, quotes)
}

// Refresh forces a refresh of one stream, or of every stream when the body
// names none. A refresh already in flight is reported, not duplicated.
func (h *dataHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.ResponseHandler.HandleError(w, r, err)
			return
		}
	}

	streams := []string{dto.StreamBatch, dto.StreamPrices}
	switch req.Stream {
	case "":
	case dto.StreamBatch, dto.StreamPrices:
		streams = []string{req.Stream}
	default:
		h.ResponseHandler.HandleError(w, r,
			errs.NewValidationError("unknown refresh stream: "+req.Stream))
		return
	}

	uid := middleware.UID(r.Context())
	started := make(map[string]bool, len(streams))
	for _, stream := range streams {
		started[stream] = h.Hub.Manual(r.Context(), uid, stream)
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusAccepted, started)
}

func (h *dataHandlers) RefreshStatus(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.Hub.Status(r.Context(), uid))
}

// TabVisible is the client's tab-focus beacon. It never fails: whether a
// refresh actually runs is the scheduler's call.
func (h *dataHandlers) TabVisible(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	h.Hub.OnVisible(r.Context(), uid)
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
