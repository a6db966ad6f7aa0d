package reconstruct

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/teachload/internal/model"
	"github.com/ppiankov/teachload/internal/schema"
)

// rowText renders a default-schema row with double-space column gaps.
func rowText(index int) string {
	s := schema.Default()
	parts := make([]string, s.Len())
	parts[0] = fmt.Sprint(index)
	for i := 1; i < s.Len(); i++ {
		if s.IsNumeric(i) {
			parts[i] = fmt.Sprint(100 + i)
		} else {
			parts[i] = fmt.Sprintf("Поле %c", 'A'+i)
		}
	}
	parts[1] = "Algebra"
	return strings.Join(parts, "  ")
}

func page(n int, content string) model.TextPage {
	return model.NewTextPage(n, content)
}

func TestSegment_TwoRowsAcrossPages(t *testing.T) {
	seg := NewSegmenter(schema.Default(), MarkerSequential, nil)
	blob := AssembleBlob([]model.TextPage{
		page(2, rowText(2)),
		page(1, rowText(1)),
	}, CollapseGap)

	res := seg.Segment(blob)

	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	for i, row := range res.Rows {
		if !row.ShapeOK || len(row.Tokens) != 38 {
			t.Errorf("row %d: ShapeOK=%v tokens=%d", i, row.ShapeOK, len(row.Tokens))
		}
		if row.Tokens[0] != fmt.Sprint(i+1) {
			t.Errorf("row %d: index token %q", i, row.Tokens[0])
		}
		if row.Page != i+1 {
			t.Errorf("row %d: expected page %d, got %d", i, i+1, row.Page)
		}
	}
	if res.PreambleChars != 0 {
		t.Errorf("unexpected preamble: %d", res.PreambleChars)
	}
}

func TestSegment_Preamble(t *testing.T) {
	seg := NewSegmenter(schema.Default(), MarkerSequential, nil)
	blob := AssembleBlob([]model.TextPage{
		page(1, "Индивидуальный план\n"+rowText(1)),
	}, CollapseGap)

	res := seg.Segment(blob)

	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
	if res.PreambleChars != len("Индивидуальный план") {
		t.Errorf("expected preamble of %d bytes, got %d", len("Индивидуальный план"), res.PreambleChars)
	}
}

func TestSegment_NoMarkers(t *testing.T) {
	seg := NewSegmenter(schema.Default(), MarkerSequential, nil)
	res := seg.Segment(AssembleBlob([]model.TextPage{page(1, "no table here")}, CollapseGap))

	if len(res.Rows) != 0 || res.PreambleChars != len("no table here") {
		t.Errorf("unexpected result: %+v", res)
	}
}

// A number inside free text that continues the sequence starts a new row.
// Both halves are kept as mis-shaped rows for review.
func TestSegment_FalseSplitOnEmbeddedNumber(t *testing.T) {
	seg := NewSegmenter(schema.Default(), MarkerSequential, nil)
	text := strings.Replace(rowText(1), "Algebra", "Algebra 2 level", 1)

	res := seg.Segment(AssembleBlob([]model.TextPage{page(1, text)}, CollapseGap))

	if len(res.Rows) != 2 {
		t.Fatalf("expected a false split into 2 rows, got %d", len(res.Rows))
	}
	for i, row := range res.Rows {
		if row.ShapeOK {
			t.Errorf("row %d should not have schema width", i)
		}
	}
	if !strings.HasPrefix(res.Rows[1].Raw, "2 level") {
		t.Errorf("unexpected second row: %q", res.Rows[1].Raw)
	}
}

func TestSegment_SequentialIgnoresOutOfOrderNumbers(t *testing.T) {
	seg := NewSegmenter(schema.Default(), MarkerSequential, nil)
	blob := AssembleBlob([]model.TextPage{page(1, rowText(1)+"\n"+rowText(2))}, CollapseGap)

	res := seg.Segment(blob)

	// Numeric cells such as "101" are markers under MarkerAny but are not
	// the next index.
	if len(res.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(res.Rows))
	}

	loose := NewSegmenter(schema.Default(), MarkerAny, nil)
	if got := len(loose.Segment(blob).Rows); got <= 2 {
		t.Errorf("expected MarkerAny to split on numeric cells, got %d rows", got)
	}
}

func TestFindMarkers(t *testing.T) {
	tests := []struct {
		text string
		want []marker
	}{
		{"1 a", []marker{{0, 1, true}}},
		{"a 12 b", []marker{{2, 12, true}}},
		{"x12 b", []marker{{1, 12, false}}},
		{"12a 3", nil},
		{"7", nil},
		{"1.5 x", []marker{{2, 5, false}}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := findMarkers(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("findMarkers(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("marker %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplit(t *testing.T) {
	s := schema.MustNew([]string{"n", "a", "b"}, []string{"n"})
	seg := NewSegmenter(s, MarkerSequential, nil)

	tests := []struct {
		name    string
		text    string
		tokens  []string
		shapeOK bool
	}{
		{"gap split", "1  two words  x", []string{"1", "two words", "x"}, true},
		{"single fallback", "1 a b", []string{"1", "a", "b"}, true},
		{"mixed gaps fall back without empty tokens", "1  a b", []string{"1", "a", "b"}, true},
		{"too short", "1  a", []string{"1", "a"}, false},
		{"too long", "1  a  b  c", []string{"1", "a", "b", "c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := seg.Split(tt.text)
			if row.ShapeOK != tt.shapeOK {
				t.Errorf("ShapeOK = %v, want %v", row.ShapeOK, tt.shapeOK)
			}
			if strings.Join(row.Tokens, "|") != strings.Join(tt.tokens, "|") {
				t.Errorf("tokens = %q, want %q", row.Tokens, tt.tokens)
			}
			if row.Raw != tt.text {
				t.Errorf("raw = %q", row.Raw)
			}
		})
	}
}

func TestSplit_ShapeBoundary(t *testing.T) {
	seg := NewSegmenter(schema.Default(), MarkerSequential, nil)
	full := rowText(1)

	if row := seg.Split(full); !row.ShapeOK {
		t.Fatal("expected 38 fields to pass")
	}

	// Drop the last field: 37 fields must never pass.
	short := full[:strings.LastIndex(full, "  ")]
	row := seg.Split(short)
	if row.ShapeOK {
		t.Error("expected 37 fields to fail")
	}
	if row.Width != 37 {
		t.Errorf("expected width 37, got %d", row.Width)
	}
}

func TestParseMarker(t *testing.T) {
	if m, err := ParseMarker(""); err != nil || m != MarkerAny {
		t.Errorf("ParseMarker(\"\") = %v, %v", m, err)
	}
	if m, err := ParseMarker("sequential"); err != nil || m != MarkerSequential {
		t.Errorf("ParseMarker(sequential) = %v, %v", m, err)
	}
	if _, err := ParseMarker("regex"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestSegment_DefaultSplitsOnEveryMarker(t *testing.T) {
	s := schema.MustNew([]string{"n", "a", "b"}, []string{"n"})
	seg := NewSegmenter(s, "", nil)

	res := seg.Segment(AssembleBlob([]model.TextPage{page(1, "1  x  y 5  p  q 9  r  s")}, CollapseGap))

	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Rows))
	}
	for i, want := range []string{"1", "5", "9"} {
		row := res.Rows[i]
		if !row.ShapeOK || row.Tokens[0] != want {
			t.Errorf("row %d: ShapeOK=%v tokens=%q", i, row.ShapeOK, row.Tokens)
		}
	}
}

func TestSegment_SequentialSkipsNumbersInPreamble(t *testing.T) {
	seg := NewSegmenter(schema.Default(), MarkerSequential, nil)
	preamble := "Индивидуальный план на 2024 учебный год"
	text := preamble + "\n" + rowText(1) + "\n" + rowText(2) + "\n" + rowText(3)

	res := seg.Segment(AssembleBlob([]model.TextPage{page(1, text)}, CollapseGap))

	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Rows))
	}
	for i, row := range res.Rows {
		if !row.ShapeOK || row.Tokens[0] != fmt.Sprint(i+1) {
			t.Errorf("row %d: ShapeOK=%v width=%d index=%q", i, row.ShapeOK, row.Width, row.Tokens[0])
		}
	}
	if res.PreambleChars != len(preamble) {
		t.Errorf("expected preamble of %d bytes, got %d", len(preamble), res.PreambleChars)
	}
}

func TestSegment_SequentialRestartsPerPage(t *testing.T) {
	seg := NewSegmenter(schema.Default(), MarkerSequential, nil)
	pageText := rowText(1) + "\n" + rowText(2)

	res := seg.Segment(AssembleBlob([]model.TextPage{page(1, pageText), page(2, pageText)}, CollapseGap))

	if len(res.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(res.Rows))
	}
	wantPages := []int{1, 1, 2, 2}
	for i, row := range res.Rows {
		if !row.ShapeOK || row.Width != 38 {
			t.Errorf("row %d: ShapeOK=%v width=%d", i, row.ShapeOK, row.Width)
		}
		if row.Page != wantPages[i] {
			t.Errorf("row %d: page %d, want %d", i, row.Page, wantPages[i])
		}
	}
}
