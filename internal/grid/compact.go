// Package grid implements the deterministic vertical compaction used on
// every layout loaded from an external source (saved layout, template,
// import). It never runs on live drag positions.
package grid

import (
	"sort"

	"github.com/portfoliodash/backend/internal/models"
)

// maxScanRows bounds the upward scan for a free slot. Reaching it means the
// input is pathological; the rect is kept where it was rather than failing
// the whole operation, since compaction is cosmetic.
const maxScanRows = 1000

type cell struct {
	row, col int
}

// Compact packs rects toward y=0 without changing any rect's x, w or h.
// Rects are placed in (y asc, x asc) order; that sort is the tie-break
// contract: higher and more-left rects win contested slots. The input slice
// is not modified.
func Compact(rects []models.GridRect, columns int) []models.GridRect {
	ordered := make([]models.GridRect, len(rects))
	copy(ordered, rects)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Y != ordered[j].Y {
			return ordered[i].Y < ordered[j].Y
		}
		return ordered[i].X < ordered[j].X
	})

	occupied := make(map[cell]bool)
	out := make([]models.GridRect, 0, len(ordered))

	for _, r := range ordered {
		if r.X+r.W > columns {
			// Out-of-bounds rect: cannot be placed on this grid at all.
			// Keep it untouched; the caller's validation should have
			// rejected it before compaction.
			out = append(out, r)
			markFootprint(occupied, r, r.Y)
			continue
		}

		targetY, ok := findRow(occupied, r)
		if !ok {
			out = append(out, r)
			markFootprint(occupied, r, r.Y)
			continue
		}

		r.Y = targetY
		markFootprint(occupied, r, targetY)
		out = append(out, r)
	}
	return out
}

// findRow scans candidate rows from 0 upward and returns the first row at
// which the rect's full footprint is free.
func findRow(occupied map[cell]bool, r models.GridRect) (int, bool) {
	for y := 0; y < maxScanRows; y++ {
		if footprintFree(occupied, r, y) {
			return y, true
		}
	}
	return 0, false
}

func footprintFree(occupied map[cell]bool, r models.GridRect, y int) bool {
	for row := y; row < y+r.H; row++ {
		for col := r.X; col < r.X+r.W; col++ {
			if occupied[cell{row, col}] {
				return false
			}
		}
	}
	return true
}

func markFootprint(occupied map[cell]bool, r models.GridRect, y int) {
	for row := y; row < y+r.H; row++ {
		for col := r.X; col < r.X+r.W; col++ {
			occupied[cell{row, col}] = true
		}
	}
}

// BottomY returns the first free row below every rect, i.e. where a new
// widget should be appended.
func BottomY(rects []models.GridRect) int {
	bottom := 0
	for _, r := range rects {
		if r.Y+r.H > bottom {
			bottom = r.Y + r.H
		}
	}
	return bottom
}
