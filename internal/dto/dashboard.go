package dto

import (
	"encoding/json"
	"time"

	"github.com/portfoliodash/backend/internal/models"
)

// --- Request types ---

type AddWidgetRequest struct {
	Type string `json:"type"`
}

type AddWidgetResponse struct {
	InstanceID string        `json:"instance_id"`
	Layout     models.Layout `json:"layout"`
}

type UpdateBreakpointRequest struct {
	Rects []models.GridRect `json:"rects"`
}

type WidgetVisibilityRequest struct {
	Hidden bool `json:"hidden"`
}

type SaveLayoutRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	IsDefault    bool          `json:"is_default,omitempty"`
	LayoutConfig models.Layout `json:"layout_config,omitempty"` // empty: snapshot the active layout
}

// UpdateSavedLayoutRequest is a partial update: nil fields are left
// untouched. Supplying LayoutConfig is the "save current layout into this
// slot" operation.
type UpdateSavedLayoutRequest struct {
	Name         *string       `json:"name,omitempty"`
	Description  *string       `json:"description,omitempty"`
	IsDefault    *bool         `json:"is_default,omitempty"`
	LayoutConfig models.Layout `json:"layout_config,omitempty"`
}

// --- Import/export file format ---

// LayoutExport is the interchange format. layout_config must contain all
// three breakpoints; import rejects anything less before compaction runs.
type LayoutExport struct {
	Name         string        `json:"name,omitempty"`
	Description  string        `json:"description,omitempty"`
	ExportedAt   time.Time     `json:"exported_at,omitempty"`
	LayoutConfig models.Layout `json:"layout_config"`
}

// --- Batch data ---

type BatchDataRequest struct {
	PortfolioID string `json:"portfolio_id"`
	IncludeSold bool   `json:"include_sold"`
	// VisibleWidgets overrides the server-side visible set when present.
	VisibleWidgets []string `json:"visible_widgets,omitempty"`
}

// BatchSnapshot is one published result of a batch fetch. Payloads stay
// raw: this service routes them per data key, it does not interpret them.
// A snapshot is never mutated after publication; the next fetch supersedes
// it wholesale.
type BatchSnapshot struct {
	Data             map[string]json.RawMessage `json:"data"`
	Errors           map[string]string          `json:"errors,omitempty"`
	Cached           bool                       `json:"cached"`
	Timestamp        time.Time                  `json:"timestamp"`
	WidgetsRequested int                        `json:"widgets_requested"`
	DataFetched      int                        `json:"data_fetched"`
}

// UpstreamBatchResponse is the portfolio data service's wire shape.
type UpstreamBatchResponse struct {
	Data             map[string]json.RawMessage `json:"data"`
	Errors           map[string]string          `json:"errors,omitempty"`
	Cached           bool                       `json:"cached"`
	Timestamp        time.Time                  `json:"timestamp"`
	WidgetsRequested int                        `json:"widgets_requested"`
	DataFetched      int                        `json:"data_fetched"`
	CacheAgeSeconds  float64                    `json:"cache_age_seconds"`
}

// UpstreamBatchRequest is the single POST body sent upstream.
type UpstreamBatchRequest struct {
	PortfolioID    string   `json:"portfolio_id"`
	VisibleWidgets []string `json:"visible_widgets"`
	IncludeSold    bool     `json:"include_sold"`
}

// --- Prices ---

type PriceQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
}

// --- Refresh ---

const (
	StreamBatch  = "batch"
	StreamPrices = "prices"
)

type RefreshRequest struct {
	Stream string `json:"stream"`
}

type StreamStatus struct {
	Stream      string    `json:"stream"`
	LastRefresh time.Time `json:"last_refresh"`
	InFlight    bool      `json:"in_flight"`
	LastError   string    `json:"last_error,omitempty"`
}

type RefreshStatusResponse struct {
	Streams []StreamStatus `json:"streams"`
}
