package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ppiankov/teachload/internal/model"
)

// Intermediate JSON forms. Text is the page dump written by `teachload
// extract`; grid is its table counterpart. Grid cells may be null.
const (
	textSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["page_number"],
    "properties": {
      "page_number": {"type": "integer", "minimum": 1},
      "content": {"type": ["string", "null"]}
    }
  }
}`

	gridSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["page", "rows"],
    "properties": {
      "page": {"type": "integer", "minimum": 1},
      "table": {"type": "integer", "minimum": 0},
      "rows": {
        "type": "array",
        "items": {"type": "array", "items": {"type": ["string", "null"]}}
      }
    }
  }
}`
)

var (
	schemasOnce sync.Once
	textSch     *jsonschema.Schema
	gridSch     *jsonschema.Schema
	schemasErr  error
)

func compileSchemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		compile := func(name, src string) (*jsonschema.Schema, error) {
			compiler := jsonschema.NewCompiler()
			if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
				return nil, fmt.Errorf("add schema: %w", err)
			}
			return compiler.Compile(name)
		}
		textSch, schemasErr = compile("text.json", textSchema)
		if schemasErr != nil {
			return
		}
		gridSch, schemasErr = compile("grid.json", gridSchema)
	})
	return textSch, gridSch, schemasErr
}

// Form identifies which intermediate shape a file holds.
type Form int

const (
	FormEmpty Form = iota // [] matches either form
	FormText
	FormGrid
)

// DetectForm validates data against both intermediate schemas.
func DetectForm(data []byte) (Form, error) {
	ts, gs, err := compileSchemas()
	if err != nil {
		return 0, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("decode intermediate: %w", err)
	}
	if arr, ok := doc.([]any); ok && len(arr) == 0 {
		return FormEmpty, nil
	}

	textErr := ts.Validate(doc)
	if textErr == nil {
		return FormText, nil
	}
	gridErr := gs.Validate(doc)
	if gridErr == nil {
		return FormGrid, nil
	}
	return 0, fmt.Errorf("not a text or grid intermediate: %w", errors.Join(textErr, gridErr))
}

type gridJSON struct {
	Page  int         `json:"page"`
	Table int         `json:"table"`
	Rows  [][]*string `json:"rows"`
}

// JSONBackend reads pre-extracted intermediate files.
type JSONBackend struct{}

// NewJSONBackend creates the intermediate backend.
func NewJSONBackend() *JSONBackend { return &JSONBackend{} }

// Name returns "json".
func (b *JSONBackend) Name() string { return "json" }

// CanHandle matches .json files.
func (b *JSONBackend) CanHandle(path string) bool { return hasExt(path, ".json") }

func (b *JSONBackend) load(path string) ([]byte, Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	form, err := DetectForm(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return data, form, nil
}

// ExtractText returns the pages of a text intermediate, or a grid
// intermediate rendered as text.
func (b *JSONBackend) ExtractText(ctx context.Context, path string) ([]model.TextPage, error) {
	data, form, err := b.load(path)
	if err != nil {
		return nil, err
	}

	switch form {
	case FormText:
		var pages []model.TextPage
		if err := json.Unmarshal(data, &pages); err != nil {
			return nil, fmt.Errorf("decode pages: %w", err)
		}
		return pages, nil
	case FormGrid:
		tables, err := decodeGrid(data)
		if err != nil {
			return nil, err
		}
		return gridToText(tables), nil
	}
	return []model.TextPage{}, nil
}

// ExtractGrid returns the tables of a grid intermediate. Text intermediates
// carry no cell boundaries and are rejected.
func (b *JSONBackend) ExtractGrid(ctx context.Context, path string) ([]model.GridTable, error) {
	data, form, err := b.load(path)
	if err != nil {
		return nil, err
	}

	switch form {
	case FormGrid:
		return decodeGrid(data)
	case FormText:
		return nil, fmt.Errorf("%w: %s holds page text, not tables", ErrModeUnsupported, path)
	}
	return []model.GridTable{}, nil
}

func decodeGrid(data []byte) ([]model.GridTable, error) {
	var raw []gridJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}

	tables := make([]model.GridTable, len(raw))
	for i, t := range raw {
		rows := make([][]string, len(t.Rows))
		for r, cells := range t.Rows {
			rows[r] = make([]string, len(cells))
			for c, cell := range cells {
				if cell != nil {
					rows[r][c] = *cell
				}
			}
		}
		tables[i] = model.GridTable{Page: t.Page, Table: t.Table, Rows: rows}
	}
	return tables, nil
}

// WriteIntermediate writes pages or tables as indented JSON without HTML
// escaping, so Cyrillic text stays readable.
func WriteIntermediate(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode intermediate: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
