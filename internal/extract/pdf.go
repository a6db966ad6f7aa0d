package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ppiankov/teachload/internal/model"
)

// PDFBackend reads PDFs in-process from positioned glyphs.
type PDFBackend struct {
	layout Layout
	logger *slog.Logger
}

// NewPDFBackend creates the pure-Go PDF backend.
func NewPDFBackend(layout Layout, logger *slog.Logger) *PDFBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFBackend{layout: layout, logger: logger}
}

// Name returns "pdf".
func (b *PDFBackend) Name() string { return "pdf" }

// Fingerprint returns the layout settings.
func (b *PDFBackend) Fingerprint() string { return b.layout.Fingerprint() }

// CanHandle matches .pdf files.
func (b *PDFBackend) CanHandle(path string) bool { return hasExt(path, ".pdf") }

// ExtractText rebuilds each page's lines. Pages without glyphs have nil
// content.
func (b *PDFBackend) ExtractText(ctx context.Context, path string) ([]model.TextPage, error) {
	var pages []model.TextPage
	err := b.walk(ctx, path, func(n int, boxes []box) {
		if len(boxes) == 0 {
			pages = append(pages, model.TextPage{Page: n})
			return
		}
		pages = append(pages, model.NewTextPage(n, b.layout.text(boxes, false)))
	})
	return pages, err
}

// ExtractGrid returns one table per page.
func (b *PDFBackend) ExtractGrid(ctx context.Context, path string) ([]model.GridTable, error) {
	var tables []model.GridTable
	err := b.walk(ctx, path, func(n int, boxes []box) {
		rows := b.layout.grid(boxes, false)
		if len(rows) == 0 {
			b.logger.Debug("no table on page", "page", n)
			return
		}
		tables = append(tables, model.GridTable{Page: n, Table: 1, Rows: rows})
	})
	return tables, err
}

// walk calls fn with the glyph boxes of every page. The reader panics on
// some malformed files; that is reported as an error.
func (b *PDFBackend) walk(ctx context.Context, path string, fn func(page int, boxes []box)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	total := r.NumPage()
	b.logger.Debug("reading pdf", "path", path, "pages", total)

	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			fn(i, nil)
			continue
		}
		fn(i, glyphBoxes(page.Content().Text))
	}
	return nil
}

// glyphBoxes converts reader glyphs to boxes anchored on the baseline,
// flipping Y so it grows downward. Whitespace glyphs are dropped so spacing
// comes from geometry alone.
func glyphBoxes(texts []pdf.Text) []box {
	boxes := make([]box, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		h := t.FontSize
		if h <= 0 {
			h = 1
		}
		boxes = append(boxes, box{
			x0:   t.X,
			x1:   t.X + t.W,
			y0:   -t.Y,
			y1:   -t.Y + h,
			text: t.S,
		})
	}
	return boxes
}
