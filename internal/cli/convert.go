package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/teachload/internal/pipeline"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Convert a teaching-load report into structured records",
	Long: `Convert extracts a document, rebuilds table rows, validates and types
every field, and writes the results:

  structured_data.csv / .json / .xlsx / .sqlite   valid records
  problematic_rows.json                           rows for manual review

Example:
  teachload convert plan.pdf
  teachload convert plan.pdf -o out --format csv,xlsx
  teachload convert plan.pdf --mode grid --backend pdftotext
  teachload convert pages.json --marker any`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	addConversionFlags(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Input.Path = args[0]
	logger := newLogger(cfg.Log)

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Converting: %s (%s mode)\n", cfg.Input.Path, cfg.Mode)
	}

	res, err := p.Run(cmd.Context(), cfg.Input.Path)
	if res != nil {
		pipeline.PrintSummary(os.Stderr, res.Summary)
	}
	return err
}
