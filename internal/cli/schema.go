package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/teachload/internal/schema"
)

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the active schema as YAML",
	Long: `Print the field list and numeric subset in the YAML form accepted by
--schema. Redirect it to a file to start a schema for another report layout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		s := schema.Default()
		if cfg.Schema.File != "" {
			if s, err = schema.Load(cfg.Schema.File); err != nil {
				return err
			}
		}

		data, err := yaml.Marshal(s.File())
		if err != nil {
			return fmt.Errorf("marshal schema: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().String("schema", "", "schema YAML file (default: built-in 38-column schema)")
}
