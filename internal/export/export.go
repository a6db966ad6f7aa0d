// Package export writes validated records and problematic rows to disk.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/teachload/internal/model"
	"github.com/ppiankov/teachload/internal/schema"
)

// Dataset is everything one run produced.
type Dataset struct {
	Schema   *schema.Schema
	Records  []model.Record
	Problems []model.ProblematicRow
}

// Sink writes a dataset in one format.
type Sink interface {
	// Format is the name used in configuration, e.g. "csv"
	Format() string

	// Ext is the file extension including the dot
	Ext() string

	Write(ctx context.Context, path string, ds Dataset) error
}

var sinks = map[string]Sink{
	"csv":    csvSink{},
	"json":   jsonSink{},
	"xlsx":   xlsxSink{},
	"sqlite": sqliteSink{},
}

// Formats lists the supported output formats.
func Formats() []string {
	return []string{"csv", "json", "xlsx", "sqlite"}
}

// Options configures an Exporter.
type Options struct {
	Dir             string
	BaseName        string
	ProblematicName string
	Formats         []string
}

// Exporter writes the artifacts of a run.
type Exporter struct {
	opts   Options
	sinks  []Sink
	logger *slog.Logger
}

// New validates the options and creates an exporter.
func New(opts Options, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.BaseName == "" {
		opts.BaseName = "structured_data"
	}
	if opts.ProblematicName == "" {
		opts.ProblematicName = "problematic_rows"
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{"csv", "json"}
	}

	e := &Exporter{opts: opts, logger: logger}
	seen := make(map[string]bool)
	for _, f := range opts.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		s, ok := sinks[f]
		if !ok {
			return nil, fmt.Errorf("unknown output format %q (want one of %s)", f, strings.Join(Formats(), ", "))
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		e.sinks = append(e.sinks, s)
	}
	return e, nil
}

// ProblematicPath is where problematic rows are written.
func (e *Exporter) ProblematicPath() string {
	return filepath.Join(e.opts.Dir, e.opts.ProblematicName+".json")
}

// Path returns the artifact path for a format.
func (e *Exporter) Path(s Sink) string {
	return filepath.Join(e.opts.Dir, e.opts.BaseName+s.Ext())
}

// Export writes every configured format, then the problematic rows. The
// problematic artifact is written only when there are problems; otherwise a
// stale one is removed. Failures of the configured formats are joined into
// the returned error; the returned paths are the artifacts that were written.
func (e *Exporter) Export(ctx context.Context, ds Dataset) ([]string, error) {
	if err := os.MkdirAll(e.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	var errs []error

	for _, s := range e.sinks {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path := e.Path(s)
		if err := s.Write(ctx, path, ds); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", s.Format(), err))
			continue
		}
		e.logger.Debug("artifact written", "format", s.Format(), "path", path, "records", len(ds.Records))
		written = append(written, path)
	}

	// The problematic artifact is secondary: its failure is logged and does
	// not fail the export.
	problemPath := e.ProblematicPath()
	if len(ds.Problems) == 0 {
		if err := removeStale(problemPath); err != nil {
			e.logger.Warn("could not remove stale problematic rows", "path", problemPath, "error", err)
		}
	} else if err := WriteProblems(problemPath, ds.Problems); err != nil {
		e.logger.Warn("could not write problematic rows", "path", problemPath, "rows", len(ds.Problems), "error", err)
	} else {
		written = append(written, problemPath)
	}

	return written, errors.Join(errs...)
}
