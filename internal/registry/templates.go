package registry

import "github.com/portfoliodash/backend/internal/models"

// Templates are the code-shipped layouts. They have no catalog identity and
// are compacted on apply like any externally loaded layout.
var Templates = []models.LayoutTemplate{
	{
		TemplateID:  "default",
		Name:        "Default",
		Description: "Key metrics on top, performance and holdings below.",
		LayoutConfig: models.Layout{
			models.BreakpointLG: {
				{ID: "total-value", X: 0, Y: 0, W: 3, H: 2, MinW: 2, MinH: 2},
				{ID: "daily-change", X: 3, Y: 0, W: 3, H: 2, MinW: 2, MinH: 2},
				{ID: "total-gain", X: 6, Y: 0, W: 3, H: 2, MinW: 2, MinH: 2},
				{ID: "market-overview", X: 9, Y: 0, W: 3, H: 2, MinW: 3, MinH: 2},
				{ID: "performance-chart", X: 0, Y: 2, W: 8, H: 4, MinW: 4, MinH: 3, MaxH: 8},
				{ID: "allocation-chart", X: 8, Y: 2, W: 4, H: 4, MinW: 3, MinH: 3},
				{ID: "holdings-table", X: 0, Y: 6, W: 12, H: 4, MinW: 4, MinH: 3},
			},
			models.BreakpointMD: {
				{ID: "total-value", X: 0, Y: 0, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "daily-change", X: 4, Y: 0, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "total-gain", X: 0, Y: 2, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "market-overview", X: 4, Y: 2, W: 4, H: 2, MinW: 3, MinH: 2},
				{ID: "performance-chart", X: 0, Y: 4, W: 8, H: 4, MinW: 4, MinH: 3, MaxH: 8},
				{ID: "allocation-chart", X: 0, Y: 8, W: 4, H: 4, MinW: 3, MinH: 3},
				{ID: "holdings-table", X: 0, Y: 12, W: 8, H: 4, MinW: 4, MinH: 3},
			},
			models.BreakpointSM: {
				{ID: "total-value", X: 0, Y: 0, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "daily-change", X: 0, Y: 2, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "total-gain", X: 0, Y: 4, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "performance-chart", X: 0, Y: 6, W: 4, H: 4, MinW: 4, MinH: 3, MaxH: 8},
				{ID: "holdings-table", X: 0, Y: 10, W: 4, H: 4, MinW: 4, MinH: 3},
			},
		},
	},
	{
		TemplateID:  "performance-focus",
		Name:        "Performance Focus",
		Description: "Large performance chart with supporting insights.",
		LayoutConfig: models.Layout{
			models.BreakpointLG: {
				{ID: "performance-chart", X: 0, Y: 0, W: 9, H: 6, MinW: 4, MinH: 3, MaxH: 8},
				{ID: "total-value", X: 9, Y: 0, W: 3, H: 2, MinW: 2, MinH: 2},
				{ID: "total-gain", X: 9, Y: 2, W: 3, H: 2, MinW: 2, MinH: 2},
				{ID: "market-overview", X: 9, Y: 4, W: 3, H: 2, MinW: 3, MinH: 2},
				{ID: "dividend-calendar", X: 0, Y: 6, W: 6, H: 4, MinW: 3, MinH: 3},
				{ID: "recent-transactions", X: 6, Y: 6, W: 6, H: 4, MinW: 4, MinH: 3},
			},
			models.BreakpointMD: {
				{ID: "performance-chart", X: 0, Y: 0, W: 8, H: 5, MinW: 4, MinH: 3, MaxH: 8},
				{ID: "total-value", X: 0, Y: 5, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "total-gain", X: 4, Y: 5, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "dividend-calendar", X: 0, Y: 7, W: 4, H: 4, MinW: 3, MinH: 3},
				{ID: "recent-transactions", X: 4, Y: 7, W: 4, H: 4, MinW: 4, MinH: 3},
			},
			models.BreakpointSM: {
				{ID: "performance-chart", X: 0, Y: 0, W: 4, H: 4, MinW: 4, MinH: 3, MaxH: 8},
				{ID: "total-value", X: 0, Y: 4, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "total-gain", X: 0, Y: 6, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "recent-transactions", X: 0, Y: 8, W: 4, H: 4, MinW: 4, MinH: 3},
			},
		},
	},
	{
		TemplateID:  "compact",
		Name:        "Compact",
		Description: "Metrics and watchlist only.",
		LayoutConfig: models.Layout{
			models.BreakpointLG: {
				{ID: "total-value", X: 0, Y: 0, W: 3, H: 2, MinW: 2, MinH: 2},
				{ID: "daily-change", X: 3, Y: 0, W: 3, H: 2, MinW: 2, MinH: 2},
				{ID: "total-gain", X: 6, Y: 0, W: 3, H: 2, MinW: 2, MinH: 2},
				{ID: "watchlist", X: 0, Y: 2, W: 6, H: 4, MinW: 3, MinH: 3},
			},
			models.BreakpointMD: {
				{ID: "total-value", X: 0, Y: 0, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "daily-change", X: 4, Y: 0, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "total-gain", X: 0, Y: 2, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "watchlist", X: 0, Y: 4, W: 8, H: 4, MinW: 3, MinH: 3},
			},
			models.BreakpointSM: {
				{ID: "total-value", X: 0, Y: 0, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "daily-change", X: 0, Y: 2, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "total-gain", X: 0, Y: 4, W: 4, H: 2, MinW: 2, MinH: 2},
				{ID: "watchlist", X: 0, Y: 6, W: 4, H: 4, MinW: 3, MinH: 3},
			},
		},
	},
}

// TemplateByID returns the template with the given id.
func TemplateByID(templateID string) (models.LayoutTemplate, bool) {
	for _, t := range Templates {
		if t.TemplateID == templateID {
			return t, true
		}
	}
	return models.LayoutTemplate{}, false
}

// DefaultTemplate is the layout installed for a user with no persisted
// state and after ResetToDefault.
func DefaultTemplate() models.LayoutTemplate {
	t, _ := TemplateByID("default")
	return t
}
