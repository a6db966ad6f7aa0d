package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/teachload/internal/model"
	"github.com/ppiankov/teachload/internal/schema"
)

func testDataset(t *testing.T) Dataset {
	t.Helper()
	s := schema.MustNew([]string{"№", "Дисциплина", "Часы", "Примечание"}, []string{"№", "Часы"})

	mk := func(page int, vals ...model.Value) model.Record {
		r, err := model.NewRecord(s, vals)
		if err != nil {
			t.Fatal(err)
		}
		r.Page = page
		return r
	}

	return Dataset{
		Schema: s,
		Records: []model.Record{
			mk(1, model.Number(1), model.String("Алгебра, часть 1"), model.Number(36.5), model.String(`"очная"`)),
			mk(2, model.Number(2), model.String("Геометрия <базовая>"), model.Number(0), model.String("")),
		},
		Problems: []model.ProblematicRow{
			{Reason: model.ReasonShape, Page: 2, Raw: "3  лишнее", Tokens: []string{"3", "лишнее"}, Detail: "2 fields, want 4"},
		},
	}
}

func newExporter(t *testing.T, dir string, formats ...string) *Exporter {
	t.Helper()
	e, err := New(Options{Dir: dir, Formats: formats}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNew_UnknownFormat(t *testing.T) {
	if _, err := New(Options{Formats: []string{"csv", "parquet"}}, nil); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNew_DedupesFormats(t *testing.T) {
	e, err := New(Options{Formats: []string{"csv", " CSV ", "json"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.sinks) != 2 {
		t.Errorf("expected 2 sinks, got %d", len(e.sinks))
	}
}

func TestExport_CSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ds := testDataset(t)

	paths, err := newExporter(t, dir, "csv").Export(context.Background(), ds)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected csv and problematic artifacts, got %v", paths)
	}

	path := filepath.Join(dir, "structured_data.csv")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\xef\xbb\xbf")) {
		t.Error("expected UTF-8 byte order mark")
	}

	header, rows, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if strings.Join(header, "|") != strings.Join(ds.Schema.Fields(), "|") {
		t.Errorf("header = %q", header)
	}
	if len(rows) != len(ds.Records) {
		t.Fatalf("expected %d rows, got %d", len(ds.Records), len(rows))
	}
	for i, r := range ds.Records {
		if strings.Join(rows[i], "|") != strings.Join(r.Strings(), "|") {
			t.Errorf("row %d = %q, want %q", i, rows[i], r.Strings())
		}
	}
}

func TestExport_JSONKeepsFieldOrder(t *testing.T) {
	dir := t.TempDir()
	ds := testDataset(t)

	if _, err := newExporter(t, dir, "json").Export(context.Background(), ds); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "structured_data.json"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	last := -1
	for _, name := range ds.Schema.Fields() {
		i := strings.Index(text, `"`+name+`"`)
		if i < last {
			t.Errorf("field %q out of order", name)
		}
		last = i
	}
	if !strings.Contains(text, "<базовая>") {
		t.Error("expected unescaped HTML characters")
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded[0]["Часы"] != 36.5 {
		t.Errorf("expected numeric hours, got %v", decoded[0]["Часы"])
	}
}

func TestExport_EmptyRecordsIsEmptyArray(t *testing.T) {
	dir := t.TempDir()
	ds := Dataset{Schema: schema.Default()}

	if _, err := newExporter(t, dir, "json").Export(context.Background(), ds); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "structured_data.json"))
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("expected [], got %q", data)
	}
}

func TestExport_ProblematicRows(t *testing.T) {
	dir := t.TempDir()
	ds := testDataset(t)
	e := newExporter(t, dir, "json")

	if _, err := e.Export(context.Background(), ds); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(e.ProblematicPath())
	if err != nil {
		t.Fatalf("expected problematic rows: %v", err)
	}
	var problems []model.ProblematicRow
	if err := json.Unmarshal(data, &problems); err != nil {
		t.Fatal(err)
	}
	if len(problems) != 1 || problems[0].Reason != model.ReasonShape || problems[0].Page != 2 {
		t.Errorf("unexpected problems: %+v", problems)
	}

	// A clean rerun removes the stale file.
	ds.Problems = nil
	paths, err := e.Export(context.Background(), ds)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(e.ProblematicPath()); !os.IsNotExist(err) {
		t.Errorf("expected stale problematic rows removed, stat err = %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("expected only the json artifact, got %v", paths)
	}
}

func TestExport_XLSX(t *testing.T) {
	dir := t.TempDir()
	ds := testDataset(t)

	if _, err := newExporter(t, dir, "xlsx").Export(context.Background(), ds); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "structured_data.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Дисциплина" || rows[1][1] != "Алгебра, часть 1" {
		t.Errorf("unexpected cells: %q", rows[:2])
	}
	if rows[1][2] != "36.5" {
		t.Errorf("expected 36.5, got %q", rows[1][2])
	}
}

func TestExport_SQLite(t *testing.T) {
	dir := t.TempDir()
	ds := testDataset(t)

	if _, err := newExporter(t, dir, "sqlite").Export(context.Background(), ds); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "structured_data.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}

	var hours float64
	var name string
	if err := db.QueryRow(`SELECT "Часы", "Дисциплина" FROM records WHERE "№" = 1`).Scan(&hours, &name); err != nil {
		t.Fatal(err)
	}
	if hours != 36.5 || name != "Алгебра, часть 1" {
		t.Errorf("got %v %q", hours, name)
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM problematic_rows").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 problematic row, got %d", n)
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent(`a"b`); got != `"a""b"` {
		t.Errorf("got %s", got)
	}
}

type failingSink struct{}

func (failingSink) Format() string { return "fail" }
func (failingSink) Ext() string    { return ".fail" }
func (failingSink) Write(context.Context, string, Dataset) error {
	return errors.New("disk full")
}

func TestExport_FailingSinkStillWritesOthers(t *testing.T) {
	dir := t.TempDir()
	e := newExporter(t, dir, "json")
	e.sinks = append([]Sink{failingSink{}}, e.sinks...)

	paths, err := e.Export(context.Background(), testDataset(t))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected sink error, got %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("expected json and problematic artifacts, got %v", paths)
	}
	if _, err := os.Stat(filepath.Join(dir, "structured_data.fail")); !os.IsNotExist(err) {
		t.Error("failed sink left a file behind")
	}
}

func TestWriteAtomic_NoPartialFileOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	err := writeAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected no file at destination")
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestExport_ProblematicFailureDoesNotFail(t *testing.T) {
	dir := t.TempDir()
	e := newExporter(t, dir, "csv")

	// A directory in the way makes the problematic write fail.
	if err := os.MkdirAll(filepath.Join(e.ProblematicPath(), "blocker"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := e.Export(context.Background(), testDataset(t))
	if err != nil {
		t.Fatalf("expected export to succeed, got %v", err)
	}
	if len(paths) != 1 || paths[0] != e.Path(csvSink{}) {
		t.Errorf("expected only the csv artifact, got %v", paths)
	}
	if _, err := os.Stat(e.Path(csvSink{})); err != nil {
		t.Errorf("expected csv artifact: %v", err)
	}
}
