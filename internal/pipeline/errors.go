package pipeline

import (
	"errors"
	"fmt"
)

// Stage sentinels. Match with errors.Is.
var (
	ErrExtraction = errors.New("extraction failed")
	ErrExport     = errors.New("export failed")
	ErrConfig     = errors.New("invalid configuration")
)

// Process exit codes.
const (
	ExitGeneric    = 1
	ExitExtraction = 3
	ExitExport     = 4
)

// StageError is a failure of one pipeline stage, carrying the exit code the
// CLI should return.
type StageError struct {
	Code    int
	Message string
	Cause   error
}

func (e *StageError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

func extractionError(input string, err error) error {
	return &StageError{
		Code:    ExitExtraction,
		Message: fmt.Sprintf("extract %s", input),
		Cause:   fmt.Errorf("%w: %w", ErrExtraction, err),
	}
}

func exportError(err error) error {
	return &StageError{
		Code:    ExitExport,
		Message: "write artifacts",
		Cause:   fmt.Errorf("%w: %w", ErrExport, err),
	}
}

func configError(err error) error {
	return &StageError{
		Code:    ExitGeneric,
		Message: "configuration",
		Cause:   fmt.Errorf("%w: %w", ErrConfig, err),
	}
}

// ExitCode maps an error to a process exit code: 0 for nil, the StageError
// code when present, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Code
	}
	switch {
	case errors.Is(err, ErrExtraction):
		return ExitExtraction
	case errors.Is(err, ErrExport):
		return ExitExport
	}
	return ExitGeneric
}
