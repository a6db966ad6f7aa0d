package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/teachload/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectForm(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Form
		wantErr bool
	}{
		{"text", `[{"page_number": 1, "content": "1  Алгебра"}, {"page_number": 2, "content": null}]`, FormText, false},
		{"grid", `[{"page": 1, "table": 1, "rows": [["1", null, "x"]]}]`, FormGrid, false},
		{"empty", `[]`, FormEmpty, false},
		{"zero page", `[{"page_number": 0, "content": ""}]`, 0, true},
		{"wrong cell type", `[{"page": 1, "rows": [[1, 2]]}]`, 0, true},
		{"object", `{"pages": []}`, 0, true},
		{"not json", `page 1`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectForm([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectForm error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("DetectForm = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSONBackend_Text(t *testing.T) {
	path := writeFile(t, "extracted_pdf_data.json",
		`[{"page_number": 1, "content": "1  Алгебра"}, {"page_number": 2, "content": null}, {"page_number": 3}]`)

	pages, err := NewJSONBackend().ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if pages[0].Text() != "1  Алгебра" || pages[1].Content != nil || pages[2].Content != nil {
		t.Errorf("unexpected pages: %+v", pages)
	}

	_, err = NewJSONBackend().ExtractGrid(context.Background(), path)
	if !errors.Is(err, ErrModeUnsupported) {
		t.Errorf("expected ErrModeUnsupported, got %v", err)
	}
}

func TestJSONBackend_Grid(t *testing.T) {
	path := writeFile(t, "tables.json",
		`[{"page": 2, "table": 1, "rows": [["2", "Геометрия"]]}, {"page": 1, "table": 1, "rows": [["1", null]]}]`)

	tables, err := NewJSONBackend().ExtractGrid(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractGrid: %v", err)
	}
	if len(tables) != 2 || tables[1].Rows[0][1] != "" {
		t.Errorf("unexpected tables: %+v", tables)
	}

	pages, err := NewJSONBackend().ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if len(pages) != 2 || pages[0].Text() != "2  Геометрия\n" {
		t.Errorf("unexpected text rendering: %+v", pages)
	}
}

func TestJSONBackend_MissingFile(t *testing.T) {
	if _, err := NewJSONBackend().ExtractText(context.Background(), "/no/such/file.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteIntermediate_RoundTrip(t *testing.T) {
	pages := []model.TextPage{model.NewTextPage(1, "1  Алгебра <очная>"), {Page: 2}}

	var buf bytes.Buffer
	if err := WriteIntermediate(&buf, pages); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<очная>") {
		t.Errorf("expected unescaped text, got %s", buf.String())
	}

	path := writeFile(t, "dump.json", buf.String())
	got, err := NewJSONBackend().ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if len(got) != 2 || got[0].Text() != pages[0].Text() || got[1].Content != nil {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
