package models

// Breakpoint identifies one of the responsive grid configurations.
type Breakpoint string

const (
	BreakpointLG Breakpoint = "lg"
	BreakpointMD Breakpoint = "md"
	BreakpointSM Breakpoint = "sm"
)

// Breakpoints lists every breakpoint in a stable order.
var Breakpoints = []Breakpoint{BreakpointLG, BreakpointMD, BreakpointSM}

// DefaultColumns is the column count per breakpoint. The surrounding app may
// override these through config; everything else reads columns from the
// resolved map, never from this variable directly.
var DefaultColumns = map[Breakpoint]int{
	BreakpointLG: 12,
	BreakpointMD: 8,
	BreakpointSM: 4,
}

// Valid reports whether b is one of the known breakpoints.
func (b Breakpoint) Valid() bool {
	switch b {
	case BreakpointLG, BreakpointMD, BreakpointSM:
		return true
	}
	return false
}

// GridRect is one widget instance's rectangle on the grid of a single
// breakpoint. X/W are in columns, Y/H in rows. Invariant: x+w never exceeds
// the breakpoint's column count.
type GridRect struct {
	ID   string `firestore:"id" json:"id"`
	X    int    `firestore:"x" json:"x"`
	Y    int    `firestore:"y" json:"y"`
	W    int    `firestore:"w" json:"w"`
	H    int    `firestore:"h" json:"h"`
	MinW int    `firestore:"minW,omitempty" json:"minW,omitempty"`
	MinH int    `firestore:"minH,omitempty" json:"minH,omitempty"`
	MaxH int    `firestore:"maxH,omitempty" json:"maxH,omitempty"`
}

// Layout maps each breakpoint to its widget rectangles. Instance ids need
// not match across breakpoints, but in practice they do.
type Layout map[Breakpoint][]GridRect

// Clone returns a deep copy. Services hand clones to callers so a published
// layout is never mutated through a shared slice.
func (l Layout) Clone() Layout {
	out := make(Layout, len(l))
	for bp, rects := range l {
		cp := make([]GridRect, len(rects))
		copy(cp, rects)
		out[bp] = cp
	}
	return out
}

// InstanceIDs returns the union of widget instance ids across all
// breakpoints, deduplicated, in no particular order.
func (l Layout) InstanceIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, rects := range l {
		for _, r := range rects {
			if !seen[r.ID] {
				seen[r.ID] = true
				ids = append(ids, r.ID)
			}
		}
	}
	return ids
}
