package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/teachload/internal/model"
)

// Converter converts one document end to end
type Converter interface {
	ConvertDocument(ctx context.Context, path string) (*model.Summary, error)
}

// ConvertJob converts a single document
type ConvertJob struct {
	Path      string
	Converter Converter
}

// Execute runs the conversion
func (j *ConvertJob) Execute(ctx context.Context) Result {
	summary, err := j.Converter.ConvertDocument(ctx, j.Path)
	return &DocumentResult{
		Path:    j.Path,
		Summary: summary,
		Error:   err,
	}
}

// DocumentResult is the outcome of converting one document
type DocumentResult struct {
	Path    string
	Summary *model.Summary
	Error   error
}

// GetError returns the conversion error
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor converts many documents concurrently
type BatchProcessor struct {
	converter   Converter
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(converter Converter, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		converter:   converter,
		concurrency: concurrency,
	}
}

// ProcessDocuments converts every path and returns results in input order.
// Documents skipped because ctx was cancelled report ctx's error.
func (b *BatchProcessor) ProcessDocuments(ctx context.Context, paths []string) []*DocumentResult {
	if len(paths) == 0 {
		return []*DocumentResult{}
	}

	jobs := make([]Job, len(paths))
	for i, p := range paths {
		jobs[i] = &ConvertJob{Path: p, Converter: b.converter}
	}

	results := Run(ctx, b.concurrency, jobs)

	out := make([]*DocumentResult, len(paths))
	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &DocumentResult{Path: paths[i], Error: err}
			continue
		}
		out[i] = r.(*DocumentResult)
	}
	return out
}

// ProcessFile reads document paths from a list file and converts them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*DocumentResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessDocuments(ctx, paths), nil
}

// ReadPathsFromFile reads document paths, one per line. Blank lines and
// lines starting with '#' are skipped; duplicates are dropped.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
