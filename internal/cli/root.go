package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/teachload/internal/model"
)

// Version is set at build time.
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "teachload",
	Short: "teachload - teaching-load report to structured records",
	Long: `teachload converts a paginated teaching-load report (one large table
spread over many PDF pages) into clean, typed records.

Rows that cannot be reconstructed or validated are never dropped: they are
written to a separate problematic rows file for manual review.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("teachload %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./teachload.yaml, then $HOME/.teachload/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	rootCmd.AddCommand(versionCmd)
}

// configCandidates lists the default config locations in search order.
func configCandidates() []string {
	paths := []string{"teachload.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".teachload", "config.yaml"))
	}
	return paths
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := setDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		for _, p := range configCandidates() {
			if _, err := os.Stat(p); err == nil {
				viper.SetConfigFile(p)
				break
			}
		}
	}

	// TEACHLOAD_OUTPUT_DIR overrides output.dir, and so on
	viper.SetEnvPrefix("TEACHLOAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if viper.ConfigFileUsed() == "" {
		return
	}
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config %s: %v\n", viper.ConfigFileUsed(), err)
	} else if verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key of cfg as a viper default so environment
// variables resolve for keys missing from the config file.
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}

	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, val := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if sub, ok := val.(map[string]any); ok {
				walk(key, sub)
				continue
			}
			v.SetDefault(key, val)
		}
	}
	walk("", tree)
	return nil
}

// flagKeys maps shared command flags to config keys.
var flagKeys = map[string]string{
	"output":   "output.dir",
	"mode":     "mode",
	"backend":  "input.backend",
	"format":   "output.formats",
	"schema":   "schema.file",
	"marker":   "text.marker",
	"collapse": "text.collapse",
	"workers":  "extract.workers",
}

// loadConfig binds the running command's flags and decodes the merged
// configuration: flags over environment over config file over defaults.
func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if f := cmd.Flags().Lookup("no-header"); f != nil && f.Changed {
		cfg.Grid.DetectHeader = false
	}
	if f := cmd.Flags().Lookup("no-cache"); f != nil && f.Changed {
		cfg.Cache.Enabled = false
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the slog logger described by cfg and installs it as the
// default.
func newLogger(cfg model.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// addConversionFlags registers the flags shared by convert, extract and
// batch.
func addConversionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", ".", "output directory")
	cmd.Flags().String("mode", model.ModeText, "reconstruction mode (text, grid)")
	cmd.Flags().String("backend", "", "extraction backend (pdf, pdftotext, json, xlsx; default: by file extension)")
	cmd.Flags().StringSlice("format", []string{"csv", "json"}, "output formats (csv, json, xlsx, sqlite)")
	cmd.Flags().String("schema", "", "schema YAML file (default: built-in 38-column schema)")
	cmd.Flags().Bool("no-header", false, "grid mode: do not scan for a header row")
	cmd.Flags().String("marker", "any", "text mode: row marker policy (any, sequential)")
	cmd.Flags().String("collapse", "gap", "text mode: whitespace collapse (gap, single)")
	cmd.Flags().Int("workers", 0, "parallel page extractions (default: number of CPUs)")
	cmd.Flags().Bool("no-cache", false, "disable the extraction cache")
}
