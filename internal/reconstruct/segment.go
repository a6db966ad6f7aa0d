package reconstruct

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/teachload/internal/model"
	"github.com/ppiankov/teachload/internal/schema"
)

// MarkerPolicy decides which integer tokens start a new row.
type MarkerPolicy string

const (
	// MarkerAny accepts every digit run followed by whitespace, including
	// numbers inside free text and numeric cells.
	MarkerAny MarkerPolicy = "any"

	// MarkerSequential only accepts candidates standing alone as a token. The
	// sequence anchors on the first standing 1 (or the first standing
	// candidate when there is none); after that a candidate is accepted when
	// it is one more than the last accepted or restarts the numbering at 1.
	MarkerSequential MarkerPolicy = "sequential"
)

// ParseMarker validates a marker policy name; empty selects MarkerAny.
func ParseMarker(s string) (MarkerPolicy, error) {
	switch MarkerPolicy(s) {
	case "", MarkerAny:
		return MarkerAny, nil
	case MarkerSequential:
		return MarkerSequential, nil
	}
	return "", fmt.Errorf("unknown marker policy %q (want any or sequential)", s)
}

var gapSplit = regexp.MustCompile(` {2,}`)

// Segmenter splits a text blob into candidate rows.
type Segmenter struct {
	schema *schema.Schema
	marker MarkerPolicy
	logger *slog.Logger
}

// NewSegmenter creates a segmenter for the given schema and marker policy.
func NewSegmenter(s *schema.Schema, marker MarkerPolicy, logger *slog.Logger) *Segmenter {
	if marker == "" {
		marker = MarkerAny
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{schema: s, marker: marker, logger: logger}
}

// marker is a candidate row start: a digit run followed by whitespace.
type marker struct {
	offset   int
	value    uint64
	standing bool // preceded by whitespace or the start of the blob
}

// findMarkers scans left to right for digit runs followed by whitespace.
// Matches never overlap.
func findMarkers(text string) []marker {
	var out []marker
	i := 0
	for i < len(text) {
		if !isDigit(text[i]) {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			continue
		}
		start := i
		for i < len(text) && isDigit(text[i]) {
			i++
		}
		if i >= len(text) {
			break
		}
		r, _ := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			continue
		}
		standing := start == 0
		if !standing {
			prev, _ := utf8.DecodeLastRuneInString(text[:start])
			standing = unicode.IsSpace(prev)
		}
		// Values too large for uint64 never continue a sequence.
		v, err := strconv.ParseUint(text[start:i], 10, 64)
		if err != nil {
			v = 0
		}
		out = append(out, marker{offset: start, value: v, standing: standing})
	}
	return out
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// accept applies the marker policy to the raw candidates.
func (s *Segmenter) accept(candidates []marker) []marker {
	if s.marker == MarkerAny {
		return candidates
	}

	anchor := -1
	for i, m := range candidates {
		if !m.standing {
			continue
		}
		if m.value == 1 {
			anchor = i
			break
		}
		if anchor < 0 {
			anchor = i
		}
	}
	if anchor < 0 {
		return nil
	}

	var out []marker
	for _, m := range candidates[anchor:] {
		if !m.standing {
			continue
		}
		// Indices restart on every page.
		if len(out) == 0 || m.value == 1 || m.value == out[len(out)-1].value+1 {
			out = append(out, m)
		}
	}
	return out
}

// SegmentResult carries the rows found in a blob plus what was skipped.
type SegmentResult struct {
	Rows          []model.CandidateRow
	PreambleChars int
}

// Segment splits the blob into one candidate row per accepted marker. A row
// runs from its marker to the next one; text before the first marker is
// preamble and is not a row.
func (s *Segmenter) Segment(blob Blob) SegmentResult {
	markers := s.accept(findMarkers(blob.Text))
	if len(markers) == 0 {
		if n := len(strings.TrimSpace(blob.Text)); n > 0 {
			s.logger.Warn("no row markers found", "chars", n)
			return SegmentResult{PreambleChars: n}
		}
		return SegmentResult{}
	}

	res := SegmentResult{
		Rows:          make([]model.CandidateRow, 0, len(markers)),
		PreambleChars: len(strings.TrimSpace(blob.Text[:markers[0].offset])),
	}
	if res.PreambleChars > 0 {
		s.logger.Debug("skipping preamble", "chars", res.PreambleChars)
	}

	for i, m := range markers {
		end := len(blob.Text)
		if i+1 < len(markers) {
			end = markers[i+1].offset
		}
		row := s.Split(strings.TrimSpace(blob.Text[m.offset:end]))
		row.Page = blob.PageAt(m.offset)
		res.Rows = append(res.Rows, row)
	}
	return res
}

// Split breaks one row's text into field candidates: first on runs of two or
// more spaces, then on single whitespace. When neither yields the schema
// width the first split is kept and the row is marked as mis-shaped.
func (s *Segmenter) Split(text string) model.CandidateRow {
	want := s.schema.Len()

	parts := gapSplit.Split(text, -1)
	if len(parts) == want {
		return model.CandidateRow{Tokens: parts, Raw: text, ShapeOK: true, Width: len(parts)}
	}

	if single := strings.Fields(text); len(single) == want {
		return model.CandidateRow{Tokens: single, Raw: text, ShapeOK: true, Width: len(single)}
	}

	return model.CandidateRow{Tokens: parts, Raw: text, ShapeOK: false, Width: len(parts)}
}
