package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/teachload/internal/pipeline"
	"github.com/ppiankov/teachload/internal/worker"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [paths...]",
	Short: "Convert many documents in parallel",
	Long: `Batch converts several documents concurrently:
- Paths come from arguments and/or a list file (one per line, # comments)
- Each document is converted independently
- Artifacts go to <output>/<document name>/

Example:
  teachload batch plans/*.pdf -o out
  teachload batch --list plans.txt --concurrency 4`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addConversionFlags(batchCmd)

	batchCmd.Flags().String("list", "", "file with document paths, one per line")
	batchCmd.Flags().Int("concurrency", runtime.NumCPU(), "documents converted at once")
	batchCmd.Flags().Duration("timeout", 30*time.Minute, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	paths := append([]string{}, args...)
	if list, _ := cmd.Flags().GetString("list"); list != "" {
		listed, err := worker.ReadPathsFromFile(list)
		if err != nil {
			return fmt.Errorf("read list: %w", err)
		}
		paths = append(paths, listed...)
	}
	paths = dedupe(paths)
	if len(paths) == 0 {
		return fmt.Errorf("no documents given (pass paths or --list)")
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  teachload Batch Conversion\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Documents:    %d\n", len(paths))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "  Mode:         %s\n", cfg.Mode)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, concurrency)
	results := processor.ProcessDocuments(ctx, paths)

	failed := 0
	valid, problematic := 0, 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Path, r.Error)
			continue
		}
		valid += r.Summary.Valid
		problematic += r.Summary.Problematic
		fmt.Fprintf(os.Stderr, "✓ %s (valid: %d, problematic: %d)\n", r.Path, r.Summary.Valid, r.Summary.Problematic)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:        %d documents\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:      %d\n", len(results)-failed)
	fmt.Fprintf(os.Stderr, "  Failures:     %d\n", failed)
	fmt.Fprintf(os.Stderr, "  Records:      %d valid, %d problematic\n", valid, problematic)
	fmt.Fprintf(os.Stderr, "\n")

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
