package reconstruct

import (
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/teachload/internal/model"
	"github.com/ppiankov/teachload/internal/schema"
)

// NormalizeOptions tunes grid normalization.
type NormalizeOptions struct {
	DetectHeader  bool
	DropBlankRows bool
}

// Normalizer turns extracted grids into schema-width candidate rows.
type Normalizer struct {
	schema *schema.Schema
	opts   NormalizeOptions
	names  map[string]int // normalized field name -> schema position
	logger *slog.Logger
}

// NewNormalizer creates a normalizer for the given schema.
func NewNormalizer(s *schema.Schema, opts NormalizeOptions, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	names := make(map[string]int, s.Len())
	for i, f := range s.Fields() {
		names[headerKey(f)] = i
	}
	return &Normalizer{schema: s, opts: opts, names: names, logger: logger}
}

// headerKey normalizes a header cell for comparison with field names.
// Wrapped header text is joined with single spaces.
func headerKey(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// NormalizeResult carries the rows of the combined grid plus bookkeeping.
type NormalizeResult struct {
	Rows             []model.CandidateRow
	HeaderRow        int // Index in the combined grid, -1 when none was found
	BlankRowsDropped int
}

type gridRow struct {
	cells []string
	page  int
}

// Normalize concatenates tables in page and table order, strips everything
// up to and including the header row, maps columns onto the schema, and
// reconciles every row to schema width.
func (n *Normalizer) Normalize(tables []model.GridTable) NormalizeResult {
	ordered := make([]model.GridTable, len(tables))
	copy(ordered, tables)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Page != ordered[j].Page {
			return ordered[i].Page < ordered[j].Page
		}
		return ordered[i].Table < ordered[j].Table
	})

	var combined []gridRow
	for _, t := range ordered {
		for _, cells := range t.Rows {
			combined = append(combined, gridRow{cells: cells, page: t.Page})
		}
	}

	res := NormalizeResult{HeaderRow: -1}
	columns := n.positional()
	body := combined

	if n.opts.DetectHeader {
		if h := n.findHeader(combined); h >= 0 {
			res.HeaderRow = h
			columns = n.mapColumns(combined[h].cells)
			body = combined[h+1:]
			n.logger.Debug("header row found", "row", h, "page", combined[h].page)
		}
	}

	res.Rows = make([]model.CandidateRow, 0, len(body))
	for _, r := range body {
		tokens := make([]string, len(columns))
		for j, c := range columns {
			if c >= 0 && c < len(r.cells) {
				tokens[j] = r.cells[c]
			}
		}

		if n.opts.DropBlankRows && allBlank(tokens) {
			res.BlankRowsDropped++
			continue
		}

		res.Rows = append(res.Rows, model.CandidateRow{
			Tokens:  tokens,
			Raw:     strings.Join(r.cells, " | "),
			Page:    r.page,
			ShapeOK: true,
			Width:   len(r.cells),
		})
	}

	return res
}

// findHeader returns the first row in which at least half of the schema
// names appear as cells, or -1.
func (n *Normalizer) findHeader(rows []gridRow) int {
	need := (n.schema.Len() + 1) / 2
	for i, r := range rows {
		seen := make(map[int]bool)
		for _, cell := range r.cells {
			if pos, ok := n.names[headerKey(cell)]; ok {
				seen[pos] = true
			}
		}
		if len(seen) >= need {
			return i
		}
	}
	return -1
}

// mapColumns assigns a source column to every schema field. Fields named in
// the header take their column; the rest take unclaimed columns left to
// right. Fields left without a column map to -1.
func (n *Normalizer) mapColumns(header []string) []int {
	columns := make([]int, n.schema.Len())
	for i := range columns {
		columns[i] = -1
	}
	claimed := make([]bool, len(header))

	for c, cell := range header {
		pos, ok := n.names[headerKey(cell)]
		if !ok || columns[pos] >= 0 {
			continue
		}
		columns[pos] = c
		claimed[c] = true
	}

	c := 0
	for pos := range columns {
		if columns[pos] >= 0 {
			continue
		}
		for c < len(header) && claimed[c] {
			c++
		}
		if c >= len(header) {
			break
		}
		columns[pos] = c
		claimed[c] = true
	}
	return columns
}

// positional maps field i to column i.
func (n *Normalizer) positional() []int {
	columns := make([]int, n.schema.Len())
	for i := range columns {
		columns[i] = i
	}
	return columns
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
