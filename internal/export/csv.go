package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// csvSink writes UTF-8 CSV with a byte order mark so spreadsheet tools
// detect the encoding.
type csvSink struct{}

func (csvSink) Format() string { return "csv" }
func (csvSink) Ext() string    { return ".csv" }

func (csvSink) Write(ctx context.Context, path string, ds Dataset) error {
	return writeAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, ds)
	})
}

// WriteCSV writes the header row and one line per record.
func WriteCSV(w io.Writer, ds Dataset) error {
	bom := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bom)

	if err := cw.Write(ds.Schema.Fields()); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, r := range ds.Records {
		if err := cw.Write(r.Strings()); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bom.Close()
}

// ReadCSV reads a CSV artifact back, stripping the byte order mark. It
// returns the header and the data rows.
func ReadCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	cr := csv.NewReader(transform.NewReader(f, unicode.UTF8BOM.NewDecoder()))
	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("read csv: %s has no header", path)
	}
	return all[0], all[1:], nil
}
