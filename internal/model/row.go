package model

// CandidateRow is a logical row before validation: ordered field candidates,
// possibly of the wrong length.
type CandidateRow struct {
	Tokens  []string // Field candidates
	Raw     string   // Row text as segmented (text mode) or joined cells (grid mode)
	Page    int      // Source page, 0 when unknown
	ShapeOK bool     // Tokens has exactly the schema width
	Width   int      // Token or cell count before reconciliation
}

// Reason classifies why a row was routed to review.
type Reason string

const (
	ReasonShape Reason = "shape" // Could not be split into exactly schema-width fields
	ReasonIndex Reason = "index" // Record-index field is not an integer
)

// ProblematicRow is a row that failed shape reconciliation or the validity
// gate. It is kept verbatim for manual review.
type ProblematicRow struct {
	Reason Reason   `json:"reason"`
	Page   int      `json:"page,omitempty"`
	Raw    string   `json:"raw"`
	Tokens []string `json:"tokens"`
	Detail string   `json:"detail,omitempty"`

	// Fields maps schema names to tokens when the row had the right width
	// but failed a later gate.
	Fields map[string]string `json:"fields,omitempty"`
}
