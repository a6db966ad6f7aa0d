// Package reconstruct rebuilds logical table rows from extraction output.
package reconstruct

import (
	"context"
	"fmt"

	"github.com/ppiankov/teachload/internal/extract"
	"github.com/ppiankov/teachload/internal/model"
)

// Stats describes what a row source saw and skipped.
type Stats struct {
	Pages            int // Pages (text) or tables (grid) received
	HeaderRow        int // Combined-grid index of the header, -1 when none
	BlankRowsDropped int
	PreambleChars    int
}

// RowSource produces candidate rows for a document.
type RowSource interface {
	Name() string
	Rows(ctx context.Context, path string) ([]model.CandidateRow, Stats, error)
}

// TextSegmentation reads page text and segments it on row markers.
type TextSegmentation struct {
	Extractor extract.TextExtractor
	Segmenter *Segmenter
	Collapse  Collapse
}

// Name returns the mode name.
func (t *TextSegmentation) Name() string { return model.ModeText }

// Rows extracts page text, assembles the blob, and segments it.
func (t *TextSegmentation) Rows(ctx context.Context, path string) ([]model.CandidateRow, Stats, error) {
	pages, err := t.Extractor.ExtractText(ctx, path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("extract text: %w", err)
	}

	seg := t.Segmenter.Segment(AssembleBlob(pages, t.Collapse))
	return seg.Rows, Stats{
		Pages:         len(pages),
		HeaderRow:     -1,
		PreambleChars: seg.PreambleChars,
	}, nil
}

// GridNormalization reads cell grids and normalizes them to schema width.
type GridNormalization struct {
	Extractor  extract.GridExtractor
	Normalizer *Normalizer
}

// Name returns the mode name.
func (g *GridNormalization) Name() string { return model.ModeGrid }

// Rows extracts tables and normalizes them.
func (g *GridNormalization) Rows(ctx context.Context, path string) ([]model.CandidateRow, Stats, error) {
	tables, err := g.Extractor.ExtractGrid(ctx, path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("extract grid: %w", err)
	}

	res := g.Normalizer.Normalize(tables)
	return res.Rows, Stats{
		Pages:            len(tables),
		HeaderRow:        res.HeaderRow,
		BlankRowsDropped: res.BlankRowsDropped,
	}, nil
}
