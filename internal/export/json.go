package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/teachload/internal/model"
)

// jsonSink writes an array of records whose keys follow schema order.
type jsonSink struct{}

func (jsonSink) Format() string { return "json" }
func (jsonSink) Ext() string    { return ".json" }

func (jsonSink) Write(ctx context.Context, path string, ds Dataset) error {
	records := ds.Records
	if records == nil {
		records = []model.Record{}
	}
	return writeAtomic(path, func(w io.Writer) error {
		return encodeJSON(w, records)
	})
}

// WriteProblems writes problematic rows for manual review.
func WriteProblems(path string, problems []model.ProblematicRow) error {
	return writeAtomic(path, func(w io.Writer) error {
		return encodeJSON(w, problems)
	})
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
