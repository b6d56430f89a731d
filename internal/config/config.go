// =============================================================================
// Sales Rollup - Configuration Module
// =============================================================================
//
// This module loads and manages the run configuration: reconciliation flags,
// input parsing settings, the rollups to build, output locations, logging and
// the HTTP server.
//
// LOADING ORDER:
//   1. Default() values
//   2. config.yaml (only the keys present in the file override defaults)
//   3. Environment variables (ROLLUP_*), optionally from a .env file
//   4. Command-line flags (applied by the cmd package)
//
// PLACEHOLDERS:
//   Rollup keys and measures may reference columns whose names vary per
//   upload. They are resolved by the pipeline for every run:
//     {units}          - the resolved units column ("Gross Units", ...)
//     {amount}         - the normalized amount column ("Sales")
//     {classification} - the resolved classification column ("FNS", ...)
//     {manager}        - "Manager"
//     {brand}          - "Brand"
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Column placeholders understood in rollup keys and measures.
const (
	PlaceholderUnits          = "{units}"
	PlaceholderAmount         = "{amount}"
	PlaceholderClassification = "{classification}"
	PlaceholderManager        = "{manager}"
	PlaceholderBrand          = "{brand}"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Supported input encodings.
var supportedEncodings = map[string]bool{
	"utf-8":        true,
	"windows-1252": true,
	"iso-8859-1":   true,
}

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the complete application configuration.
type Config struct {
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Input     InputConfig     `yaml:"input"`
	Rollups   []RollupConfig  `yaml:"rollups"`

	// Measures are the numeric columns summed by every rollup. The first
	// measure breaks ordering ties.
	Measures []string `yaml:"measures"`

	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

// ReconcileConfig holds the behavioral flags of the join and the rollups.
// Source revisions disagree on every one of these, so each is explicit.
type ReconcileConfig struct {
	// ClampNegativeUnits replaces negative unit counts with 0.
	// Default: true
	ClampNegativeUnits bool `yaml:"clamp_negative_units"`

	// ExcludeZeroUnits drops transaction rows whose units are exactly 0.
	// Default: true (legacy behavior: false)
	ExcludeZeroUnits bool `yaml:"exclude_zero_units"`

	// StandardizeBrand title-cases brand names and maps "Nan" to "Unknown".
	// Default: true
	StandardizeBrand bool `yaml:"standardize_brand"`

	// KeepMissingGroupKeys keeps rows with a blank group value as their own
	// group in rollups. When false they are dropped.
	// Default: true
	KeepMissingGroupKeys bool `yaml:"keep_missing_group_keys"`
}

// InputConfig controls how uploaded files are read.
type InputConfig struct {
	// CatalogSheet is the worksheet read from an XLSX catalog.
	// Empty selects the first sheet.
	CatalogSheet string `yaml:"catalog_sheet"`

	// TransactionsSheet is the worksheet read from an XLSX transactions file.
	TransactionsSheet string `yaml:"transactions_sheet"`

	// Encoding of CSV inputs: "utf-8", "windows-1252" or "iso-8859-1".
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`

	// Delimiter of CSV inputs. Accepts a single character or "tab", "pipe",
	// "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of CSV rows merged into the header.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`
}

// RollupConfig describes one rollup report.
type RollupConfig struct {
	// Name identifies the rollup in the API and logs.
	Name string `yaml:"name"`

	// Title is the worksheet name in the XLSX export.
	Title string `yaml:"title"`

	// Keys are the group columns, outermost first.
	Keys []string `yaml:"keys"`

	// File is the CSV file name written for this rollup.
	File string `yaml:"file"`
}

// OutputConfig controls where and how results are written.
type OutputConfig struct {
	// Dir is the directory results are written to.
	// Default: "./output"
	Dir string `yaml:"dir"`

	// Formats lists the export formats: "csv", "xlsx".
	// Default: [csv, xlsx]
	Formats []string `yaml:"formats"`

	// EnrichedFile is the CSV file name of the enriched dataset.
	// Default: "merged_sales_data.csv"
	EnrichedFile string `yaml:"enriched_file"`

	// WorkbookFile is the XLSX file holding every table.
	// Default: "sales_rollup.xlsx"
	WorkbookFile string `yaml:"workbook_file"`

	// SummaryFile is the plain-text run summary.
	// Default: "run_summary.txt"
	SummaryFile string `yaml:"summary_file"`

	// RunSubdir writes each run into its own "{timestamp}_{uuid}" directory.
	RunSubdir bool `yaml:"run_subdir"`

	// ArchiveInputs moves the input files to ArchiveDir after a successful run.
	ArchiveInputs bool `yaml:"archive_inputs"`

	// ArchiveDir receives archived inputs.
	// Default: "./input_archive"
	ArchiveDir string `yaml:"archive_dir"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	// Level: "debug", "info", "warn", "error". Default: "info"
	Level string `yaml:"level"`

	// Format: "text" or "json". Default: "text"
	Format string `yaml:"format"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	MaxUploadMB    int64         `yaml:"max_upload_mb"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	MaxWait        time.Duration `yaml:"max_wait"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultRollups returns the four standard rollups.
func DefaultRollups() []RollupConfig {
	return []RollupConfig{
		{Name: "by_brand", Title: "By Brand", Keys: []string{PlaceholderBrand}, File: "pivot_by_brand.csv"},
		{Name: "by_manager", Title: "By Manager", Keys: []string{PlaceholderManager}, File: "pivot_by_manager.csv"},
		{
			Name:  "by_brand_classification",
			Title: "By Brand x Classification",
			Keys:  []string{PlaceholderBrand, PlaceholderClassification},
			File:  "pivot_by_brand_classification.csv",
		},
		{
			Name:  "by_manager_brand_classification",
			Title: "By Manager x Brand x Class",
			Keys:  []string{PlaceholderManager, PlaceholderBrand, PlaceholderClassification},
			File:  "pivot_by_manager_brand_classification.csv",
		},
	}
}

// Default returns a configuration with every default applied. The
// reconciliation flags follow the most recent source behavior.
func Default() *Config {
	return &Config{
		Reconcile: ReconcileConfig{
			ClampNegativeUnits:   true,
			ExcludeZeroUnits:     true,
			StandardizeBrand:     true,
			KeepMissingGroupKeys: true,
		},
		Input: InputConfig{
			Encoding:   "utf-8",
			Delimiter:  ",",
			HeaderRows: 1,
		},
		Rollups:  DefaultRollups(),
		Measures: []string{PlaceholderUnits, PlaceholderAmount},
		Output: OutputConfig{
			Dir:          "./output",
			Formats:      []string{FormatCSV, FormatXLSX},
			EnrichedFile: "merged_sales_data.csv",
			WorkbookFile: "sales_rollup.xlsx",
			SummaryFile:  "run_summary.txt",
			ArchiveDir:   "./input_archive",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadMB:    32,
			MaxConcurrent:  4,
			MaxWait:        30 * time.Second,
			RequestTimeout: 60 * time.Second,
		},
	}
}

// applyDefaults fills values a config file blanked out.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Input.Encoding == "" {
		cfg.Input.Encoding = def.Input.Encoding
	}
	if cfg.Input.Delimiter == "" {
		cfg.Input.Delimiter = def.Input.Delimiter
	}
	if cfg.Input.HeaderRows <= 0 {
		cfg.Input.HeaderRows = def.Input.HeaderRows
	}
	if len(cfg.Rollups) == 0 {
		cfg.Rollups = def.Rollups
	}
	if len(cfg.Measures) == 0 {
		cfg.Measures = def.Measures
	}
	for i := range cfg.Rollups {
		r := &cfg.Rollups[i]
		if r.Title == "" {
			r.Title = r.Name
		}
		if r.File == "" {
			r.File = r.Name + ".csv"
		}
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = def.Output.Dir
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = def.Output.Formats
	}
	if cfg.Output.EnrichedFile == "" {
		cfg.Output.EnrichedFile = def.Output.EnrichedFile
	}
	if cfg.Output.WorkbookFile == "" {
		cfg.Output.WorkbookFile = def.Output.WorkbookFile
	}
	if cfg.Output.SummaryFile == "" {
		cfg.Output.SummaryFile = def.Output.SummaryFile
	}
	if cfg.Output.ArchiveDir == "" {
		cfg.Output.ArchiveDir = def.Output.ArchiveDir
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = def.Server.MaxUploadMB
	}
	if cfg.Server.MaxConcurrent <= 0 {
		cfg.Server.MaxConcurrent = def.Server.MaxConcurrent
	}
	if cfg.Server.MaxWait <= 0 {
		cfg.Server.MaxWait = def.Server.MaxWait
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = def.Server.RequestTimeout
	}
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads a YAML config file on top of Default().
//
// RETURNS:
//   - The loaded configuration.
//   - An error wrapping os.ErrNotExist when the file is missing, or a parse
//     or validation error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default() when the file
// does not exist. found reports whether a file was read.
func LoadOrDefault(path string) (cfg *Config, found bool, err error) {
	cfg, err = Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if !supportedEncodings[strings.ToLower(c.Input.Encoding)] {
		errs = append(errs, fmt.Errorf("input.encoding %q is not supported", c.Input.Encoding))
	}

	names := make(map[string]bool, len(c.Rollups))
	for i, r := range c.Rollups {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("rollups[%d]: name is required", i))
		} else if names[r.Name] {
			errs = append(errs, fmt.Errorf("rollups[%d]: duplicate name %q", i, r.Name))
		}
		names[r.Name] = true
		if len(r.Keys) == 0 {
			errs = append(errs, fmt.Errorf("rollups[%d]: at least one key is required", i))
		}
	}

	for _, f := range c.Output.Formats {
		if f != FormatCSV && f != FormatXLSX {
			errs = append(errs, fmt.Errorf("output.formats: unknown format %q", f))
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// WantsFormat reports whether format is among the configured output formats.
func (c *Config) WantsFormat(format string) bool {
	for _, f := range c.Output.Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel   = "ROLLUP_LOG_LEVEL"
	EnvLogFormat  = "ROLLUP_LOG_FORMAT"
	EnvServerAddr = "ROLLUP_SERVER_ADDR"
	EnvOutputDir  = "ROLLUP_OUTPUT_DIR"
)

// ApplyEnv overrides configuration values from ROLLUP_* environment
// variables. Unset variables leave the value unchanged.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.Output.Dir = v
	}
}
