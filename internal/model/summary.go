package model

import "time"

// Summary is the end-of-run report: what came in, what came out, and why rows
// were sent to review.
type Summary struct {
	RunID   string `json:"run_id"`
	Input   string `json:"input"`
	Mode    string `json:"mode"`
	Backend string `json:"backend"`

	Pages      int `json:"pages"`      // Pages or tables received from extraction
	Candidates int `json:"candidates"` // Rows handed to the validator

	Valid       int            `json:"valid"`
	Problematic int            `json:"problematic"`
	ByReason    map[Reason]int `json:"by_reason,omitempty"`
	Coercions   int            `json:"coercions"` // Numeric fields defaulted to zero

	HeaderRow        int `json:"header_row"`         // Combined-grid index of the header, -1 when none
	BlankRowsDropped int `json:"blank_rows_dropped"` // Grid rows with no content
	PreambleChars    int `json:"preamble_chars"`     // Text before the first row marker

	Outputs   []string      `json:"outputs,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// AddProblem counts one problematic row.
func (s *Summary) AddProblem(r Reason) {
	if s.ByReason == nil {
		s.ByReason = make(map[Reason]int)
	}
	s.ByReason[r]++
	s.Problematic++
}
