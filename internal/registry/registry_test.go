package registry

import (
	"reflect"
	"testing"

	"github.com/portfoliodash/backend/internal/models"
)

func TestBaseType(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"total-value", "total-value"},
		{"total-value-2", "total-value"},
		{"total-value-10", "total-value"},
		{"news-feed-3", "news-feed"},
		{"watchlist", "watchlist"},
		{"performance-chart", "performance-chart"},
	}
	for _, c := range cases {
		if got := BaseType(c.in); got != c.want {
			t.Errorf("BaseType(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNextInstanceID_FirstInstance(t *testing.T) {
	if got := NextInstanceID("watchlist", nil); got != "watchlist" {
		t.Errorf("expected bare type id, got %q", got)
	}
}

func TestNextInstanceID_Counting(t *testing.T) {
	existing := []string{"total-value", "total-value-2"}
	if got := NextInstanceID("total-value", existing); got != "total-value-3" {
		t.Errorf("expected total-value-3, got %q", got)
	}
}

func TestNextInstanceID_IgnoresOtherTypes(t *testing.T) {
	existing := []string{"total-value", "total-gain", "news-feed-2"}
	if got := NextInstanceID("total-value", existing); got != "total-value-2" {
		t.Errorf("expected total-value-2, got %q", got)
	}
}

func TestNextInstanceID_Uniqueness(t *testing.T) {
	var existing []string
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := NextInstanceID("news-feed", existing)
		if seen[id] {
			t.Fatalf("duplicate id %q at step %d (existing: %v)", id, i, existing)
		}
		seen[id] = true
		existing = append(existing, id)
	}
}

func TestIsInstanceOf(t *testing.T) {
	if !IsInstanceOf("total-value", "total-value") {
		t.Error("type id should be an instance of itself")
	}
	if !IsInstanceOf("total-value-2", "total-value") {
		t.Error("suffixed id should match its base type")
	}
	if IsInstanceOf("total-gain", "total-value") {
		t.Error("unrelated type should not match")
	}
	// A shorter id never matches a longer type, despite the shared prefix.
	if IsInstanceOf("total", "total-value") {
		t.Error("shorter id should not match a longer type")
	}
}

func TestHasInstance(t *testing.T) {
	existing := []string{"watchlist", "news-feed-2"}
	if !HasInstance("watchlist", existing) {
		t.Error("expected watchlist instance to be found")
	}
	if HasInstance("holdings-table", existing) {
		t.Error("expected no holdings-table instance")
	}
}

func TestDataKeysFor_UnionSortedDeduped(t *testing.T) {
	// total-value, daily-change and total-gain all map to "metrics".
	types := []string{"total-gain", "daily-change", "total-value", "watchlist", "market-overview"}
	got := DataKeysFor(types)
	want := []string{DataKeyMarketVIX, DataKeyMetrics, DataKeyWatchlist}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DataKeysFor = %v, want %v", got, want)
	}
}

func TestDataKeysFor_InstanceIDsAndNoDataKey(t *testing.T) {
	got := DataKeysFor([]string{"total-value-2", "notes", "notes-3"})
	want := []string{DataKeyMetrics}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DataKeysFor = %v, want %v", got, want)
	}
}

func TestCatalog_NoTypeEndsInDigits(t *testing.T) {
	// The suffix-stripping scheme is ambiguous for type ids ending in
	// digits; the catalog must never ship one.
	for typeID := range Catalog {
		if BaseType(typeID) != typeID {
			t.Errorf("type id %q would be mangled by BaseType", typeID)
		}
	}
}

func TestCatalog_EntriesConsistent(t *testing.T) {
	for typeID, cfg := range Catalog {
		if cfg.Type != typeID {
			t.Errorf("entry %q has mismatched Type %q", typeID, cfg.Type)
		}
		if cfg.DefaultSize.W < 1 || cfg.DefaultSize.H < 1 {
			t.Errorf("entry %q has degenerate default size %+v", typeID, cfg.DefaultSize)
		}
	}
}

func TestTemplates_ResolveAndCoverAllBreakpoints(t *testing.T) {
	if len(Templates) == 0 {
		t.Fatal("no templates shipped")
	}
	for _, tpl := range Templates {
		for _, bp := range models.Breakpoints {
			rects, ok := tpl.LayoutConfig[bp]
			if !ok || len(rects) == 0 {
				t.Errorf("template %q missing breakpoint %s", tpl.TemplateID, bp)
				continue
			}
			columns := models.DefaultColumns[bp]
			for _, r := range rects {
				if _, known := Catalog[BaseType(r.ID)]; !known {
					t.Errorf("template %q references unknown type %q", tpl.TemplateID, r.ID)
				}
				if r.X+r.W > columns {
					t.Errorf("template %q rect %q exceeds %d columns at %s", tpl.TemplateID, r.ID, columns, bp)
				}
			}
		}
	}
}

func TestDefaultTemplate(t *testing.T) {
	tpl := DefaultTemplate()
	if tpl.TemplateID != "default" {
		t.Errorf("expected default template, got %q", tpl.TemplateID)
	}
}
