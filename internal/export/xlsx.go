package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Нагрузка"

// xlsxSink writes a single-sheet workbook. Numeric fields are stored as
// numbers.
type xlsxSink struct{}

func (xlsxSink) Format() string { return "xlsx" }
func (xlsxSink) Ext() string    { return ".xlsx" }

func (xlsxSink) Write(ctx context.Context, path string, ds Dataset) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	header := make([]any, ds.Schema.Len())
	for i, name := range ds.Schema.Fields() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(ds.Schema.Len(), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, style)
	}

	for i, r := range ds.Records {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row := make([]any, r.Len())
		for j := range row {
			row[j] = r.At(j).Any()
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	_ = f.SetColWidth(sheetName, "B", "B", 40)
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	return writeAtomic(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}
