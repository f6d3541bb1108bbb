// Package registry holds the shipped widget type catalog and the instance
// id scheme. An instance id is either the bare type id (first instance) or
// "{type}-{n}" for n >= 2; ids are unique within a layout.
package registry

import (
	"sort"
	"strconv"
	"strings"

	"github.com/portfoliodash/backend/internal/models"
)

// Catalog is the shipped widget type registry, keyed by type id.
// None of the type ids end in a digit; BaseType depends on that.
var Catalog = map[string]models.WidgetTypeConfig{
	"total-value": {
		Type: "total-value", Name: "Total Value", Category: models.CategoryMetrics,
		DefaultSize:   models.WidgetSize{W: 3, H: 2, MinW: 2, MinH: 2},
		AllowMultiple: true, DataKey: DataKeyMetrics,
	},
	"daily-change": {
		Type: "daily-change", Name: "Daily Change", Category: models.CategoryMetrics,
		DefaultSize: models.WidgetSize{W: 3, H: 2, MinW: 2, MinH: 2},
		DataKey:     DataKeyMetrics,
	},
	"total-gain": {
		Type: "total-gain", Name: "Total Gain", Category: models.CategoryMetrics,
		DefaultSize: models.WidgetSize{W: 3, H: 2, MinW: 2, MinH: 2},
		DataKey:     DataKeyMetrics,
	},
	"performance-chart": {
		Type: "performance-chart", Name: "Performance", Category: models.CategoryData,
		DefaultSize: models.WidgetSize{W: 6, H: 4, MinW: 4, MinH: 3, MaxH: 8},
		DataKey:     DataKeyPerformance,
	},
	"holdings-table": {
		Type: "holdings-table", Name: "Holdings", Category: models.CategoryData,
		DefaultSize: models.WidgetSize{W: 6, H: 4, MinW: 4, MinH: 3},
		DataKey:     DataKeyHoldings,
	},
	"allocation-chart": {
		Type: "allocation-chart", Name: "Allocation", Category: models.CategoryInsights,
		DefaultSize: models.WidgetSize{W: 4, H: 4, MinW: 3, MinH: 3},
		DataKey:     DataKeyAllocation,
	},
	"watchlist": {
		Type: "watchlist", Name: "Watchlist", Category: models.CategoryData,
		DefaultSize: models.WidgetSize{W: 4, H: 4, MinW: 3, MinH: 3},
		DataKey:     DataKeyWatchlist,
	},
	"market-overview": {
		Type: "market-overview", Name: "Market Overview", Category: models.CategoryInsights,
		DefaultSize: models.WidgetSize{W: 4, H: 3, MinW: 3, MinH: 2},
		DataKey:     DataKeyMarketVIX,
	},
	"news-feed": {
		Type: "news-feed", Name: "News", Category: models.CategoryInsights,
		DefaultSize:   models.WidgetSize{W: 4, H: 5, MinW: 3, MinH: 3},
		AllowMultiple: true, DataKey: DataKeyNews,
	},
	"dividend-calendar": {
		Type: "dividend-calendar", Name: "Dividends", Category: models.CategoryData,
		DefaultSize: models.WidgetSize{W: 4, H: 4, MinW: 3, MinH: 3},
		DataKey:     DataKeyDividends,
	},
	"recent-transactions": {
		Type: "recent-transactions", Name: "Recent Transactions", Category: models.CategoryData,
		DefaultSize: models.WidgetSize{W: 6, H: 4, MinW: 4, MinH: 3},
		DataKey:     DataKeyTransactions,
	},
	// Notes render purely from local state; no backend data dependency.
	"notes": {
		Type: "notes", Name: "Notes", Category: models.CategoryInsights,
		DefaultSize:   models.WidgetSize{W: 3, H: 3, MinW: 2, MinH: 2},
		AllowMultiple: true,
	},
}

// Data keys are the unit of batching: many widget types map onto one key.
const (
	DataKeyMetrics      = "metrics"
	DataKeyPerformance  = "performance"
	DataKeyHoldings     = "holdings"
	DataKeyAllocation   = "allocation"
	DataKeyWatchlist    = "watchlist"
	DataKeyMarketVIX    = "market_vix"
	DataKeyNews         = "news"
	DataKeyDividends    = "dividends"
	DataKeyTransactions = "transactions"
)

// Lookup returns the type config for a type id.
func Lookup(typeID string) (models.WidgetTypeConfig, bool) {
	cfg, ok := Catalog[typeID]
	return cfg, ok
}

// List returns the catalog sorted by type id, for the widget-types endpoint.
func List() []models.WidgetTypeConfig {
	out := make([]models.WidgetTypeConfig, 0, len(Catalog))
	for _, cfg := range Catalog {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// BaseType strips a trailing "-<digits>" suffix from an instance id. An id
// without a numeric suffix is its own base type. A base type id that itself
// ends in digits would be ambiguous here; the catalog deliberately contains
// none.
func BaseType(instanceID string) string {
	i := strings.LastIndex(instanceID, "-")
	if i <= 0 {
		return instanceID
	}
	suffix := instanceID[i+1:]
	if suffix == "" || !allDigits(suffix) {
		return instanceID
	}
	return instanceID[:i]
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// IsInstanceOf reports whether id is an instance of typeID, i.e. the type
// itself or "{typeID}-..." .
func IsInstanceOf(id, typeID string) bool {
	return id == typeID || strings.HasPrefix(id, typeID+"-")
}

// CountInstances counts existing instances of typeID among the given ids.
func CountInstances(typeID string, existing []string) int {
	count := 0
	for _, id := range existing {
		if id == typeID || (strings.HasPrefix(id, typeID+"-") && allDigits(id[len(typeID)+1:])) {
			count++
		}
	}
	return count
}

// HasInstance reports whether any instance of typeID is present.
func HasInstance(typeID string, existing []string) bool {
	return CountInstances(typeID, existing) > 0
}

// NextInstanceID returns the id for the next instance of typeID: the bare
// type id when none exists, otherwise "{typeID}-{n}" starting at count+1.
// Removing an instance leaves holes in the numbering, so the candidate is
// probed upward until it is unused; numbers may be reused after removal.
func NextInstanceID(typeID string, existing []string) string {
	count := CountInstances(typeID, existing)
	if count == 0 {
		return typeID
	}
	used := make(map[string]bool, len(existing))
	for _, id := range existing {
		used[id] = true
	}
	for n := count + 1; ; n++ {
		candidate := typeID + "-" + strconv.Itoa(n)
		if !used[candidate] {
			return candidate
		}
	}
}

// DataKeysFor maps a set of widget type ids (or instance ids) onto the
// deduplicated, sorted set of backend data keys they need. Types without a
// data key contribute nothing.
func DataKeysFor(typeIDs []string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, id := range typeIDs {
		cfg, ok := Catalog[BaseType(id)]
		if !ok || cfg.DataKey == "" {
			continue
		}
		if !seen[cfg.DataKey] {
			seen[cfg.DataKey] = true
			keys = append(keys, cfg.DataKey)
		}
	}
	sort.Strings(keys)
	return keys
}
