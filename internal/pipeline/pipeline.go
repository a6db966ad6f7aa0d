// Package pipeline runs one document through extraction, row
// reconstruction, validation and export.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/teachload/internal/cache"
	"github.com/ppiankov/teachload/internal/export"
	"github.com/ppiankov/teachload/internal/extract"
	"github.com/ppiankov/teachload/internal/model"
	"github.com/ppiankov/teachload/internal/reconstruct"
	"github.com/ppiankov/teachload/internal/schema"
	"github.com/ppiankov/teachload/internal/validate"
	"github.com/ppiankov/teachload/internal/worker"
)

// Pipeline orchestrates a conversion. It is safe for concurrent use by the
// batch processor; every run builds its own row source and exporter.
type Pipeline struct {
	config    *model.Config
	schema    *schema.Schema
	registry  *extract.Registry
	validator *validate.Validator
	collapse  reconstruct.Collapse
	marker    reconstruct.MarkerPolicy
	logger    *slog.Logger
}

// Result is everything a run produced.
type Result struct {
	Records  []model.Record
	Problems []model.ProblematicRow
	Summary  *model.Summary
}

// New validates cfg and builds the pipeline: schema, backends (wrapped in
// the extraction cache when enabled) and validator.
func New(cfg *model.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Mode != model.ModeText && cfg.Mode != model.ModeGrid {
		return nil, configError(fmt.Errorf("unknown mode %q (want text or grid)", cfg.Mode))
	}
	collapse, err := reconstruct.ParseCollapse(cfg.Text.Collapse)
	if err != nil {
		return nil, configError(err)
	}
	marker, err := reconstruct.ParseMarker(cfg.Text.Marker)
	if err != nil {
		return nil, configError(err)
	}
	if _, err := export.New(exportOptions(cfg, cfg.Output.Dir), logger); err != nil {
		return nil, configError(err)
	}

	s := schema.Default()
	if cfg.Schema.File != "" {
		if s, err = schema.Load(cfg.Schema.File); err != nil {
			return nil, configError(err)
		}
	}

	return &Pipeline{
		config:    cfg,
		schema:    s,
		registry:  NewRegistry(cfg, logger),
		validator: validate.NewValidator(s, logger),
		collapse:  collapse,
		marker:    marker,
		logger:    logger,
	}, nil
}

// NewRegistry builds every extraction backend from cfg. The pure-Go PDF
// reader is registered first so it handles .pdf unless pdftotext is named.
func NewRegistry(cfg *model.Config, logger *slog.Logger) *extract.Registry {
	layout := extract.Layout{
		RowTolerance: cfg.Extract.RowTolerance,
		CellGap:      cfg.Extract.CellGap,
	}
	limiter := worker.NewLimiter(cfg.Extract.SpawnsPerSecond, cfg.Extract.Burst)
	store := cache.New(cfg.Cache)

	backends := []extract.Backend{
		extract.NewPDFBackend(layout, logger),
		extract.NewPdftotextBackend(extract.PdftotextOptions{
			Binary:      cfg.Extract.Pdftotext,
			Workers:     cfg.Extract.Workers,
			PageTimeout: cfg.Extract.PageTimeout,
			Layout:      layout,
		}, nil, limiter, logger),
		extract.NewJSONBackend(),
		extract.NewXLSXBackend(),
	}

	r := extract.NewRegistry()
	for _, b := range backends {
		r.Register(extract.NewCached(b, store, cfg.Cache.TTL, logger))
	}
	return r
}

// Schema returns the active schema.
func (p *Pipeline) Schema() *schema.Schema { return p.schema }

// Backend resolves the configured backend for input.
func (p *Pipeline) Backend(input string) (extract.Backend, error) {
	return p.registry.Resolve(p.config.Input.Backend, input)
}

func exportOptions(cfg *model.Config, dir string) export.Options {
	return export.Options{
		Dir:             dir,
		BaseName:        cfg.Output.BaseName,
		ProblematicName: cfg.Output.ProblematicName,
		Formats:         cfg.Output.Formats,
	}
}

func (p *Pipeline) source(b extract.Backend) reconstruct.RowSource {
	if p.config.Mode == model.ModeGrid {
		return &reconstruct.GridNormalization{
			Extractor: b,
			Normalizer: reconstruct.NewNormalizer(p.schema, reconstruct.NormalizeOptions{
				DetectHeader:  p.config.Grid.DetectHeader,
				DropBlankRows: p.config.Grid.DropBlankRows,
			}, p.logger),
		}
	}
	return &reconstruct.TextSegmentation{
		Extractor: b,
		Segmenter: reconstruct.NewSegmenter(p.schema, p.marker, p.logger),
		Collapse:  p.collapse,
	}
}

// Run converts input and writes artifacts to the configured output
// directory.
func (p *Pipeline) Run(ctx context.Context, input string) (*Result, error) {
	return p.RunTo(ctx, input, p.config.Output.Dir)
}

// RunTo converts input and writes artifacts to dir. The returned Result and
// its Summary are always non-nil, so counts can be reported on failure. An
// extraction failure writes nothing.
func (p *Pipeline) RunTo(ctx context.Context, input, dir string) (*Result, error) {
	summary := &model.Summary{
		RunID:     uuid.NewString(),
		Input:     input,
		Mode:      p.config.Mode,
		HeaderRow: -1,
		StartedAt: time.Now().UTC(),
	}
	res := &Result{Summary: summary}
	logger := p.logger.With("run_id", summary.RunID, "input", input)
	defer func() { summary.Duration = time.Since(summary.StartedAt) }()

	backend, err := p.Backend(input)
	if err != nil {
		return res, extractionError(input, err)
	}
	summary.Backend = backend.Name()

	src := p.source(backend)
	logger.Debug("extracting", "backend", backend.Name(), "mode", src.Name())

	rows, stats, err := src.Rows(ctx, input)
	if err != nil {
		return res, extractionError(input, err)
	}
	summary.Pages = stats.Pages
	summary.Candidates = len(rows)
	summary.HeaderRow = stats.HeaderRow
	summary.BlankRowsDropped = stats.BlankRowsDropped
	summary.PreambleChars = stats.PreambleChars

	res.Records, res.Problems = p.validator.Validate(rows)
	summary.Valid = len(res.Records)
	for _, r := range res.Records {
		summary.Coercions += len(r.Coercions)
	}
	for _, pr := range res.Problems {
		summary.AddProblem(pr.Reason)
	}

	exporter, err := export.New(exportOptions(p.config, dir), logger)
	if err != nil {
		return res, configError(err)
	}
	outputs, err := exporter.Export(ctx, export.Dataset{
		Schema:   p.schema,
		Records:  res.Records,
		Problems: res.Problems,
	})
	summary.Outputs = outputs
	if err != nil {
		return res, exportError(err)
	}

	logger.Info("conversion complete",
		"backend", summary.Backend,
		"pages", summary.Pages,
		"candidates", summary.Candidates,
		"valid", summary.Valid,
		"problematic", summary.Problematic,
		"coercions", summary.Coercions,
	)
	return res, nil
}

// ConvertDocument runs one document of a batch, writing into a subdirectory
// of the output directory named after the document.
func (p *Pipeline) ConvertDocument(ctx context.Context, path string) (*model.Summary, error) {
	res, err := p.RunTo(ctx, path, DocumentDir(p.config.Output.Dir, path))
	return res.Summary, err
}

// DocumentDir is the batch output directory for a document.
func DocumentDir(root, path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "document"
	}
	return filepath.Join(root, stem)
}

// Extract runs only the extraction stage and returns page text (text mode)
// or tables (grid mode), ready for extract.WriteIntermediate.
func (p *Pipeline) Extract(ctx context.Context, input string) (any, error) {
	backend, err := p.Backend(input)
	if err != nil {
		return nil, extractionError(input, err)
	}

	var out any
	if p.config.Mode == model.ModeGrid {
		tables, gerr := backend.ExtractGrid(ctx, input)
		if tables == nil {
			tables = []model.GridTable{}
		}
		out, err = tables, gerr
	} else {
		pages, terr := backend.ExtractText(ctx, input)
		if pages == nil {
			pages = []model.TextPage{}
		}
		out, err = pages, terr
	}
	if err != nil {
		return nil, extractionError(input, err)
	}
	return out, nil
}
