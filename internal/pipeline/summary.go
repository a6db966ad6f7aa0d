package pipeline

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/teachload/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════"

// PrintSummary writes the end-of-run banner.
func PrintSummary(w io.Writer, s *model.Summary) {
	fmt.Fprintf(w, "\n%s\n  Conversion Summary\n%s\n\n", rule, rule)
	fmt.Fprintf(w, "  Input:        %s\n", s.Input)
	if s.Backend != "" {
		fmt.Fprintf(w, "  Backend:      %s (%s mode)\n", s.Backend, s.Mode)
	}
	fmt.Fprintf(w, "  Pages:        %d\n", s.Pages)
	fmt.Fprintf(w, "  Candidates:   %d\n", s.Candidates)
	fmt.Fprintf(w, "  Valid:        %d\n", s.Valid)
	fmt.Fprintf(w, "  Problematic:  %d%s\n", s.Problematic, formatReasons(s.ByReason))
	fmt.Fprintf(w, "  Coercions:    %d\n", s.Coercions)

	if s.HeaderRow >= 0 {
		fmt.Fprintf(w, "  Header row:   %d\n", s.HeaderRow)
	}
	if s.BlankRowsDropped > 0 {
		fmt.Fprintf(w, "  Blank rows:   %d dropped\n", s.BlankRowsDropped)
	}
	if s.PreambleChars > 0 {
		fmt.Fprintf(w, "  Preamble:     %d bytes skipped\n", s.PreambleChars)
	}

	for i, out := range s.Outputs {
		label := ""
		if i == 0 {
			label = "Outputs:"
		}
		fmt.Fprintf(w, "  %-13s %s\n", label, out)
	}
	fmt.Fprintf(w, "  Duration:     %s\n\n", s.Duration.Round(time.Millisecond))
}

func formatReasons(byReason map[model.Reason]int) string {
	if len(byReason) == 0 {
		return ""
	}
	parts := make([]string, 0, len(byReason))
	for r, n := range byReason {
		parts = append(parts, fmt.Sprintf("%s: %d", r, n))
	}
	sort.Strings(parts)
	return " (" + strings.Join(parts, ", ") + ")"
}
