package extract

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// box is a positioned piece of text. y grows downward.
type box struct {
	x0, y0, x1, y1 float64
	text           string
}

// Layout groups positioned text into rows and cells.
type Layout struct {
	// RowTolerance is the largest vertical offset, in points, between
	// boxes on the same row.
	RowTolerance float64

	// CellGap is the smallest horizontal gap, in points, that separates
	// two cells.
	CellGap float64
}

func (l Layout) withDefaults() Layout {
	if l.RowTolerance <= 0 {
		l.RowTolerance = 2
	}
	if l.CellGap <= 0 {
		l.CellGap = 6
	}
	return l
}

// Fingerprint identifies the effective tolerances, so output built with
// different settings is never confused.
func (l Layout) Fingerprint() string {
	l = l.withDefaults()
	return fmt.Sprintf("rt=%g,gap=%g", l.RowTolerance, l.CellGap)
}

// rows groups boxes whose top edges lie within RowTolerance of the row's
// first box, top to bottom, each row sorted left to right.
func (l Layout) rows(boxes []box) [][]box {
	l = l.withDefaults()

	sorted := make([]box, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].y0 != sorted[j].y0 {
			return sorted[i].y0 < sorted[j].y0
		}
		return sorted[i].x0 < sorted[j].x0
	})

	var rows [][]box
	var rowY float64
	for _, b := range sorted {
		if len(rows) > 0 && math.Abs(b.y0-rowY) <= l.RowTolerance {
			rows[len(rows)-1] = append(rows[len(rows)-1], b)
			continue
		}
		rows = append(rows, []box{b})
		rowY = b.y0
	}

	for _, r := range rows {
		sort.SliceStable(r, func(i, j int) bool { return r[i].x0 < r[j].x0 })
	}
	return rows
}

// cells joins one row's boxes into cell strings. Boxes further apart than
// CellGap start a new cell. Within a cell, glyph boxes are joined directly
// unless the gap exceeds a fifth of the glyph height; word boxes always get
// a space.
func (l Layout) cells(row []box, words bool) []string {
	l = l.withDefaults()

	var out []string
	var cur strings.Builder
	var prev *box

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for i := range row {
		b := &row[i]
		if prev != nil {
			gap := b.x0 - prev.x1
			switch {
			case gap > l.CellGap:
				flush()
			case words:
				cur.WriteByte(' ')
			case gap > (prev.y1-prev.y0)/5:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(b.text)
		prev = b
	}
	flush()
	return out
}

// grid returns the page as rows of cells.
func (l Layout) grid(boxes []box, words bool) [][]string {
	var out [][]string
	for _, r := range l.rows(boxes) {
		if cells := l.cells(r, words); len(cells) > 0 {
			out = append(out, cells)
		}
	}
	return out
}

// text renders the page with cells separated by two spaces, one line per row.
func (l Layout) text(boxes []box, words bool) string {
	var b strings.Builder
	for _, r := range l.grid(boxes, words) {
		b.WriteString(strings.Join(r, "  "))
		b.WriteByte('\n')
	}
	return b.String()
}
