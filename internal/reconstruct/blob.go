package reconstruct

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/teachload/internal/model"
)

// Collapse selects how whitespace in the text blob is normalized.
type Collapse string

const (
	// CollapseGap keeps column gaps: any whitespace run of two or more
	// characters, or one containing a line break, becomes exactly two spaces.
	// A lone space or tab becomes one space.
	CollapseGap Collapse = "gap"

	// CollapseSingle turns every whitespace run into a single space.
	CollapseSingle Collapse = "single"
)

// ParseCollapse validates a collapse name; empty selects CollapseGap.
func ParseCollapse(s string) (Collapse, error) {
	switch Collapse(s) {
	case "", CollapseGap:
		return CollapseGap, nil
	case CollapseSingle:
		return CollapseSingle, nil
	}
	return "", fmt.Errorf("unknown collapse %q (want gap or single)", s)
}

// Blob is the normalized text of the whole document with page boundaries.
type Blob struct {
	Text   string
	starts []pageStart
}

type pageStart struct {
	offset int
	page   int
}

// PageAt returns the page containing the byte offset, or 0 when unknown.
func (b Blob) PageAt(offset int) int {
	i := sort.Search(len(b.starts), func(i int) bool { return b.starts[i].offset > offset })
	if i == 0 {
		return 0
	}
	return b.starts[i-1].page
}

// AssembleBlob joins page contents in page order, separated by line breaks,
// and normalizes whitespace. Pages without content are skipped.
func AssembleBlob(pages []model.TextPage, collapse Collapse) Blob {
	ordered := make([]model.TextPage, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Page < ordered[j].Page })

	var raw strings.Builder
	var rawStarts []pageStart
	for _, p := range ordered {
		if p.Content == nil {
			continue
		}
		rawStarts = append(rawStarts, pageStart{offset: raw.Len(), page: p.Page})
		raw.WriteString(*p.Content)
		raw.WriteByte('\n')
	}

	text, starts := normalize(raw.String(), rawStarts, collapse)
	return Blob{Text: text, starts: starts}
}

// normalize collapses whitespace and remaps page start offsets into the
// normalized text. Leading and trailing whitespace is dropped.
func normalize(raw string, rawStarts []pageStart, collapse Collapse) (string, []pageStart) {
	var out strings.Builder
	out.Grow(len(raw))
	starts := make([]pageStart, 0, len(rawStarts))
	next := 0

	i := 0
	for i < len(raw) {
		for next < len(rawStarts) && rawStarts[next].offset <= i {
			starts = append(starts, pageStart{offset: out.Len(), page: rawStarts[next].page})
			next++
		}

		r, size := utf8.DecodeRuneInString(raw[i:])
		if !unicode.IsSpace(r) {
			out.WriteString(raw[i : i+size])
			i += size
			continue
		}

		// Measure the whole whitespace run.
		j := i
		count := 0
		breaks := false
		for j < len(raw) {
			r, size := utf8.DecodeRuneInString(raw[j:])
			if !unicode.IsSpace(r) {
				break
			}
			if r == '\n' || r == '\r' {
				breaks = true
			}
			count++
			j += size
		}

		if out.Len() > 0 && j < len(raw) {
			if collapse == CollapseSingle || (count == 1 && !breaks) {
				out.WriteByte(' ')
			} else {
				out.WriteString("  ")
			}
		}
		i = j
	}

	// Remaining page starts point past the last visible character.
	for ; next < len(rawStarts); next++ {
		starts = append(starts, pageStart{offset: out.Len(), page: rawStarts[next].page})
	}
	return out.String(), starts
}
