package validate

import (
	"math"
	"strconv"
	"strings"
)

// IndexResult is the outcome of parsing a record-index cell.
type IndexResult struct {
	Value uint64
	OK    bool
}

// ParseIndex parses the record-index field: an unsigned base-10 integer after
// trimming. Signs, decimals, and anything else fail.
func ParseIndex(raw string) IndexResult {
	s := strings.TrimSpace(raw)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return IndexResult{}
	}
	return IndexResult{Value: n, OK: true}
}

// NumberResult is the outcome of parsing a numeric cell.
type NumberResult struct {
	Value float64
	OK    bool
	Empty bool // Cell was blank; Value is 0
}

// ParseNumber parses a numeric cell after trimming. A single decimal comma is
// accepted when the cell has no dot ("0,5"). NaN and infinities fail.
func ParseNumber(raw string) NumberResult {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NumberResult{Empty: true}
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return NumberResult{}
	}
	return NumberResult{Value: f, OK: true}
}
