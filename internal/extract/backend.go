// Package extract turns source documents into page text or cell grids.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/teachload/internal/model"
)

var (
	// ErrNoBackend is returned when no backend matches a name or file type.
	ErrNoBackend = errors.New("no extraction backend")

	// ErrModeUnsupported is returned when a backend cannot produce the
	// requested output form for a document.
	ErrModeUnsupported = errors.New("extraction mode not supported")
)

// TextExtractor returns the raw text of every page.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) ([]model.TextPage, error)
}

// GridExtractor returns every detected table as a grid of cells.
type GridExtractor interface {
	ExtractGrid(ctx context.Context, path string) ([]model.GridTable, error)
}

// Backend is one way of reading documents.
type Backend interface {
	// Name returns the backend name used in configuration
	Name() string

	// CanHandle reports whether the backend reads this file type
	CanHandle(path string) bool

	TextExtractor
	GridExtractor
}

// Fingerprinter is implemented by backends whose output depends on settings
// beyond the document itself.
type Fingerprinter interface {
	Fingerprint() string
}

// Registry picks a backend by name or by file extension.
type Registry struct {
	backends []Backend
}

// NewRegistry creates a registry. Backends registered first win extension
// matches.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{}
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// Register adds a backend
func (r *Registry) Register(b Backend) {
	r.backends = append(r.backends, b)
}

// Names lists registered backends in order
func (r *Registry) Names() []string {
	names := make([]string, len(r.backends))
	for i, b := range r.backends {
		names[i] = b.Name()
	}
	return names
}

// Resolve returns the named backend, or the first that can handle path when
// name is empty.
func (r *Registry) Resolve(name, path string) (Backend, error) {
	if name != "" {
		for _, b := range r.backends {
			if b.Name() == name {
				return b, nil
			}
		}
		return nil, fmt.Errorf("%w named %q (have %s)", ErrNoBackend, name, strings.Join(r.Names(), ", "))
	}

	for _, b := range r.backends {
		if b.CanHandle(path) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w for %q", ErrNoBackend, filepath.Ext(path))
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// gridToText renders grids as page text, cells separated by two spaces and
// rows by line breaks. Tables on the same page are concatenated.
func gridToText(tables []model.GridTable) []model.TextPage {
	var pages []model.TextPage
	byPage := make(map[int]int)

	for _, t := range tables {
		var b strings.Builder
		for _, row := range t.Rows {
			b.WriteString(strings.Join(row, "  "))
			b.WriteByte('\n')
		}

		if i, ok := byPage[t.Page]; ok {
			merged := pages[i].Text() + b.String()
			pages[i].Content = &merged
			continue
		}
		byPage[t.Page] = len(pages)
		pages = append(pages, model.NewTextPage(t.Page, b.String()))
	}
	return pages
}
