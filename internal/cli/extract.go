package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/teachload/internal/extract"
	"github.com/ppiankov/teachload/internal/pipeline"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <input>",
	Short: "Dump the extraction stage as a JSON intermediate",
	Long: `Extract runs only the extraction backend and writes its output as JSON:
page text in text mode, cell grids in grid mode. The file can be fed back
to convert with --backend json, which skips extraction.

Example:
  teachload extract plan.pdf -o pages.json
  teachload extract plan.pdf --mode grid --backend pdftotext -o tables.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "-", "output file (- for stdout)")
	extractCmd.Flags().String("mode", "text", "extraction form (text, grid)")
	extractCmd.Flags().String("backend", "", "extraction backend (default: by file extension)")
	extractCmd.Flags().Int("workers", 0, "parallel page extractions (default: number of CPUs)")
	extractCmd.Flags().Bool("no-cache", false, "disable the extraction cache")
}

func runExtract(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// -o names a file here, not an output directory.
	cfg.Output.Dir = "."
	logger := newLogger(cfg.Log)

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}

	out, err := p.Extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	target, _ := cmd.Flags().GetString("output")
	var w io.Writer = os.Stdout
	if target != "-" {
		var f *os.File
		f, err = os.Create(target)
		if err != nil {
			return fmt.Errorf("create %s: %w", target, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", target, closeErr)
			}
		}()
		w = f
	}

	if err := extract.WriteIntermediate(w, out); err != nil {
		return err
	}
	if target != "-" {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", target)
	}
	return nil
}
