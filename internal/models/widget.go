package models

// WidgetCategory groups widget types in the picker UI.
type WidgetCategory string

const (
	CategoryMetrics  WidgetCategory = "metrics"
	CategoryData     WidgetCategory = "data"
	CategoryInsights WidgetCategory = "insights"
)

// WidgetSize is the default footprint of a widget type. The service clamps
// W to the breakpoint's column count when placing an instance.
type WidgetSize struct {
	W    int `json:"w"`
	H    int `json:"h"`
	MinW int `json:"minW,omitempty"`
	MinH int `json:"minH,omitempty"`
	MaxH int `json:"maxH,omitempty"`
}

// WidgetTypeConfig is one registry entry. DataKey names the backend data
// category the widget depends on; several types may share one DataKey, and a
// purely local widget (e.g. notes) has none.
type WidgetTypeConfig struct {
	Type          string         `json:"type"`
	Name          string         `json:"name"`
	Category      WidgetCategory `json:"category"`
	DefaultSize   WidgetSize     `json:"defaultSize"`
	AllowMultiple bool           `json:"allowMultiple"`
	DataKey       string         `json:"dataKey,omitempty"`
}
