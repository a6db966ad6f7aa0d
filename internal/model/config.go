package model

import (
	"runtime"
	"time"
)

// Reconstruction strategies.
const (
	ModeText = "text"
	ModeGrid = "grid"
)

// Config is the complete runtime configuration. Field tags serve both viper
// (mapstructure) and `config init` (yaml).
type Config struct {
	Mode    string        `yaml:"mode" mapstructure:"mode"` // text | grid
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Schema  SchemaConfig  `yaml:"schema" mapstructure:"schema"`
	Text    TextConfig    `yaml:"text" mapstructure:"text"`
	Grid    GridConfig    `yaml:"grid" mapstructure:"grid"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// InputConfig selects the source document and how to read it.
type InputConfig struct {
	Path    string `yaml:"path" mapstructure:"path"`
	Backend string `yaml:"backend" mapstructure:"backend"` // pdf | pdftotext | json | xlsx; empty = by extension
}

// OutputConfig controls where and how artifacts are written.
type OutputConfig struct {
	Dir             string   `yaml:"dir" mapstructure:"dir"`
	Formats         []string `yaml:"formats" mapstructure:"formats"` // csv, json, xlsx, sqlite
	BaseName        string   `yaml:"base_name" mapstructure:"base_name"`
	ProblematicName string   `yaml:"problematic_name" mapstructure:"problematic_name"`
}

// SchemaConfig optionally replaces the built-in teaching-load schema.
type SchemaConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// TextConfig tunes the text-mode row segmenter.
type TextConfig struct {
	Collapse string `yaml:"collapse" mapstructure:"collapse"` // gap | single
	Marker   string `yaml:"marker" mapstructure:"marker"`     // any | sequential
}

// GridConfig tunes the grid-mode normalizer.
type GridConfig struct {
	DetectHeader  bool `yaml:"detect_header" mapstructure:"detect_header"`
	DropBlankRows bool `yaml:"drop_blank_rows" mapstructure:"drop_blank_rows"`
}

// ExtractConfig tunes the extraction backends.
type ExtractConfig struct {
	Pdftotext       string        `yaml:"pdftotext" mapstructure:"pdftotext"` // binary name or path
	Workers         int           `yaml:"workers" mapstructure:"workers"`
	SpawnsPerSecond float64       `yaml:"spawns_per_second" mapstructure:"spawns_per_second"`
	Burst           int           `yaml:"burst" mapstructure:"burst"`
	PageTimeout     time.Duration `yaml:"page_timeout" mapstructure:"page_timeout"`
	RowTolerance    float64       `yaml:"row_tolerance" mapstructure:"row_tolerance"` // points; glyphs closer in Y share a row
	CellGap         float64       `yaml:"cell_gap" mapstructure:"cell_gap"`           // points; wider X gaps start a new cell
}

// CacheConfig controls caching of extraction output.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"` // empty = memory only
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug | info | warn | error
	Format string `yaml:"format" mapstructure:"format"` // text | json
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode: ModeText,
		Output: OutputConfig{
			Dir:             ".",
			Formats:         []string{"csv", "json"},
			BaseName:        "structured_data",
			ProblematicName: "problematic_rows",
		},
		Text: TextConfig{
			Collapse: "gap",
			Marker:   "any",
		},
		Grid: GridConfig{
			DetectHeader:  true,
			DropBlankRows: true,
		},
		Extract: ExtractConfig{
			Pdftotext:       "pdftotext",
			Workers:         runtime.NumCPU(),
			SpawnsPerSecond: 20,
			Burst:           5,
			PageTimeout:     30 * time.Second,
			RowTolerance:    2.0,
			CellGap:         6.0,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
