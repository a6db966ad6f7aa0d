package extract

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/teachload/internal/model"
)

// XLSXBackend reads workbooks where each sheet holds one page of the table.
type XLSXBackend struct{}

// NewXLSXBackend creates the workbook backend.
func NewXLSXBackend() *XLSXBackend { return &XLSXBackend{} }

// Name returns "xlsx".
func (b *XLSXBackend) Name() string { return "xlsx" }

// CanHandle matches .xlsx files.
func (b *XLSXBackend) CanHandle(path string) bool { return hasExt(path, ".xlsx") }

// ExtractGrid returns one table per sheet, numbered from page 1.
func (b *XLSXBackend) ExtractGrid(ctx context.Context, path string) ([]model.GridTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var tables []model.GridTable
	for i, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		tables = append(tables, model.GridTable{Page: i + 1, Table: 1, Rows: rows})
	}
	return tables, nil
}

// ExtractText renders every sheet as page text.
func (b *XLSXBackend) ExtractText(ctx context.Context, path string) ([]model.TextPage, error) {
	tables, err := b.ExtractGrid(ctx, path)
	if err != nil {
		return nil, err
	}
	return gridToText(tables), nil
}
