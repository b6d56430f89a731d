// =============================================================================
// Sales Rollup - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (rollup)
//   ├── processCmd     (rollup process)
//   ├── serveCmd       (rollup serve)
//   ├── initConfigCmd  (rollup init-config)
//   └── versionCmd     (rollup version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads a .env file when present
//   2. Loads the YAML config (or the built-in defaults when it is missing)
//   3. Applies ROLLUP_* environment overrides
//   4. Sets up the global slog logger
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-rollup/internal/config"
	"github.com/ginjaninja78/sales-rollup/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// logFormat overrides logging.format when set.
var logFormat string

// appConfig is the configuration loaded by PersistentPreRunE.
var appConfig *config.Config

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Sales Rollup - Reconcile a sales extract against the product catalog",
	Long: `Sales Rollup joins a marketplace sales extract to the internal product
catalog, cleans the units, standardizes brand names and produces pivot-style
rollups by brand, manager and classification.

Key Features:
  - CSV and XLSX inputs, detected from content
  - Configurable cleaning flags (negative units, zero units, brand casing)
  - Hierarchical rollups with subtotals and a grand total
  - CSV files and a single formatted XLSX workbook as output
  - An HTTP endpoint for the same reconciliation

Example Usage:
  rollup process --catalog catalog.xlsx --transactions sales.csv
  rollup serve --addr :8080
  rollup init-config rollup.yaml`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if logFormat != "" {
			cfg.Logging.Format = logFormat
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
		appConfig = cfg
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env, the YAML config at path and the environment.
func loadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, found, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if !found {
		slog.Debug("config file not found, using defaults", "path", path)
	}
	return cfg, nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"rollup.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Log format: text or json (overrides logging.format)",
	)
}
