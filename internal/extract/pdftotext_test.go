package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/teachload/internal/worker"
)

// fakeRunner answers pdftotext calls from canned per-page output.
type fakeRunner struct {
	mu     sync.Mutex
	calls  [][]string
	pages  map[string]string
	failOn string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	page := ""
	for i, a := range args {
		if a == "-f" && i+1 < len(args) {
			page = args[i+1]
		}
	}
	if page == f.failOn {
		return nil, errors.New("exit status 1: Syntax Error")
	}
	return []byte(f.pages[page]), nil
}

func newFakeBackend(r Runner, pages int) *PdftotextBackend {
	b := NewPdftotextBackend(PdftotextOptions{Binary: "pdftotext", Workers: 3}, r, worker.NewLimiter(0, 1), nil)
	b.pageCount = func(string) (int, error) { return pages, nil }
	return b
}

func TestPdftotext_ExtractText_PageOrder(t *testing.T) {
	r := &fakeRunner{pages: map[string]string{}}
	for i := 1; i <= 8; i++ {
		r.pages[fmt.Sprint(i)] = fmt.Sprintf("%d  page text\f", i)
	}
	r.pages["5"] = "   \f"

	b := newFakeBackend(r, 8)
	pages, err := b.ExtractText(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}

	if len(pages) != 8 {
		t.Fatalf("expected 8 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.Page != i+1 {
			t.Errorf("position %d holds page %d", i, p.Page)
		}
		if p.Page == 5 {
			if p.Content != nil {
				t.Errorf("blank page should be null, got %q", *p.Content)
			}
			continue
		}
		if want := fmt.Sprintf("%d  page text", i+1); p.Text() != want {
			t.Errorf("page %d = %q, want %q", p.Page, p.Text(), want)
		}
	}

	if len(r.calls) != 8 {
		t.Errorf("expected one process per page, got %d", len(r.calls))
	}
	call := strings.Join(r.calls[0], " ")
	if !strings.Contains(call, "-layout") || !strings.HasSuffix(call, "report.pdf -") {
		t.Errorf("unexpected invocation: %s", call)
	}
}

func TestPdftotext_PageFailureIsFatal(t *testing.T) {
	r := &fakeRunner{pages: map[string]string{"1": "a", "2": "b", "3": "c"}, failOn: "2"}
	b := newFakeBackend(r, 3)

	_, err := b.ExtractText(context.Background(), "report.pdf")
	if err == nil || !strings.Contains(err.Error(), "page 2") {
		t.Errorf("expected page 2 failure, got %v", err)
	}
}

func TestPdftotext_PageCountFailure(t *testing.T) {
	b := NewPdftotextBackend(PdftotextOptions{}, &fakeRunner{}, nil, nil)

	if _, err := b.ExtractText(context.Background(), "/no/such/file.pdf"); err == nil {
		t.Error("expected error for missing file")
	}
}

const bboxPage = `<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title></title></head>
<body>
<doc>
  <page width="842.000000" height="595.000000">
    <flow><block><line>
      <word xMin="10.0" yMin="50.0" xMax="16.0" yMax="60.0">1</word>
      <word xMin="100.0" yMin="50.2" xMax="140.0" yMax="60.2">Алгебра</word>
      <word xMin="143.0" yMin="50.2" xMax="170.0" yMax="60.2">и</word>
      <word xMin="250.0" yMin="50.0" xMax="262.0" yMax="60.0">36</word>
    </line></block></flow>
    <flow><block><line>
      <word xMin="10.0" yMin="72.0" xMax="16.0" yMax="82.0">2</word>
      <word xMin="100.0" yMin="72.0" xMax="150.0" yMax="82.0">Геометрия</word>
      <word xMin="250.0" yMin="72.0" xMax="262.0" yMax="82.0">&lt;5</word>
    </line></block></flow>
  </page>
</doc>
</body>
</html>`

func TestPdftotext_ExtractGrid(t *testing.T) {
	r := &fakeRunner{pages: map[string]string{"1": bboxPage, "2": "<html><body><doc><page></page></doc></body></html>"}}
	b := newFakeBackend(r, 2)

	tables, err := b.ExtractGrid(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("ExtractGrid: %v", err)
	}

	if len(tables) != 1 {
		t.Fatalf("expected 1 table (empty page skipped), got %d", len(tables))
	}
	rows := tables[0].Rows
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if got := strings.Join(rows[0], "|"); got != "1|Алгебра и|36" {
		t.Errorf("row 0 = %q", got)
	}
	if got := strings.Join(rows[1], "|"); got != "2|Геометрия|<5" {
		t.Errorf("row 1 = %q", got)
	}
	if !strings.Contains(strings.Join(r.calls[0], " "), "-bbox-layout") {
		t.Errorf("expected -bbox-layout invocation, got %v", r.calls[0])
	}
}

func TestParseBBox_SkipsIncompleteWords(t *testing.T) {
	words, err := parseBBox([]byte(`<word xMin="1" yMin="2" xMax="3">x</word><word xMin="1" yMin="2" xMax="3" yMax="4"> </word>`))
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 0 {
		t.Errorf("expected no usable words, got %+v", words)
	}
}
