// =============================================================================
// Sales Rollup - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs one reconciliation from
// the command line and writes its outputs to disk.
//
// COMMAND USAGE:
//   rollup process --catalog <file> --transactions <file> [flags]
//
// FLAGS:
//   --catalog, --transactions : Input files (CSV or XLSX)
//   --output-dir              : Overrides output.dir
//   --format                  : Overrides output.formats (csv, xlsx)
//   --clamp-negative-units    : Overrides reconcile.clamp_negative_units
//   --exclude-zero-units      : Overrides reconcile.exclude_zero_units
//   --standardize-brand       : Overrides reconcile.standardize_brand
//   --keep-missing-group-keys : Overrides reconcile.keep_missing_group_keys
//   --dry-run                 : Run and print the summary without writing
//
// PROCESSING PIPELINE:
//   1. Read both input files
//   2. Run the pipeline (load, reconcile, roll up, summarize)
//   3. Write the outputs and the run summary
//   4. Archive the inputs when output.archive_inputs is set
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-rollup/internal/config"
	"github.com/ginjaninja78/sales-rollup/internal/pipeline"
	"github.com/ginjaninja78/sales-rollup/internal/validation"
	"github.com/ginjaninja78/sales-rollup/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// processOptions are the flags of the process command.
type processOptions struct {
	CatalogPath      string
	TransactionsPath string
	OutputDir        string
	Formats          []string
	DryRun           bool

	// Overrides holds the reconcile flags given explicitly on the command line.
	Overrides map[string]bool
}

var processOpts processOptions

// Reconcile flag names shared by the CLI and applyOverrides.
const (
	flagClampNegative = "clamp-negative-units"
	flagExcludeZero   = "exclude-zero-units"
	flagStandardize   = "standardize-brand"
	flagKeepMissing   = "keep-missing-group-keys"
)

var reconcileFlags = []string{flagClampNegative, flagExcludeZero, flagStandardize, flagKeepMissing}

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Reconcile a sales extract against the catalog and write the rollups",
	Long: `The process command joins the transactions file to the catalog, applies
the configured cleaning flags and builds every configured rollup.

On success:
  - CSV files and/or one XLSX workbook are written to the output directory
  - A plain text run summary is written next to them
  - The inputs are moved to the archive when output.archive_inputs is set

On error:
  - A short message with a suggested action and an error code is printed
  - Nothing is archived`,

	RunE: func(cmd *cobra.Command, args []string) error {
		processOpts.Overrides = map[string]bool{}
		for _, name := range reconcileFlags {
			if cmd.Flags().Changed(name) {
				v, err := cmd.Flags().GetBool(name)
				if err != nil {
					return err
				}
				processOpts.Overrides[name] = v
			}
		}

		_, err := runProcess(cmd.Context(), appConfig, processOpts, cmd.OutOrStdout())
		if err != nil {
			slog.Debug("process failed", "error", err)
			return errors.New(validation.MapError(err).String())
		}
		return nil
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	f := processCmd.Flags()
	f.StringVar(&processOpts.CatalogPath, "catalog", "", "Catalog file (CSV or XLSX)")
	f.StringVar(&processOpts.TransactionsPath, "transactions", "", "Transactions file (CSV or XLSX)")
	f.StringVar(&processOpts.OutputDir, "output-dir", "", "Output directory (overrides output.dir)")
	f.StringSliceVar(&processOpts.Formats, "format", nil, "Output formats: csv, xlsx (overrides output.formats)")
	f.BoolVar(&processOpts.DryRun, "dry-run", false, "Run and print the summary without writing output files")

	f.Bool(flagClampNegative, true, "Replace negative units with zero")
	f.Bool(flagExcludeZero, true, "Drop rows whose units are zero")
	f.Bool(flagStandardize, true, "Title-case brand names")
	f.Bool(flagKeepMissing, true, "Keep rows whose rollup key is blank")

	_ = processCmd.MarkFlagRequired("catalog")
	_ = processCmd.MarkFlagRequired("transactions")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess runs one reconciliation and prints its summary to out. It
// returns the written outputs, or nil on a dry run.
func runProcess(ctx context.Context, base *config.Config, opts processOptions, out io.Writer) (*pipeline.Output, error) {
	cfg := applyOverrides(base, opts)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// =========================================================================
	// STEP 1: READ INPUTS
	// =========================================================================

	catalog, err := readInput(opts.CatalogPath)
	if err != nil {
		return nil, err
	}
	transactions, err := readInput(opts.TransactionsPath)
	if err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 2: RUN THE PIPELINE
	// =========================================================================

	runner := pipeline.New(cfg)
	res, err := runner.Run(ctx, catalog, transactions)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		fmt.Fprintln(out, "Dry run: no files written")
		return nil, utils.WriteSummary(out, pipeline.RunSummary(res, nil))
	}

	// =========================================================================
	// STEP 3: WRITE OUTPUTS
	// =========================================================================

	written, err := runner.Write(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("writing outputs: %w", err)
	}

	// =========================================================================
	// STEP 4: ARCHIVE INPUTS
	// =========================================================================

	if cfg.Output.ArchiveInputs {
		fm := utils.NewFileManager(cfg.Output.Dir, cfg.Output.ArchiveDir)
		for _, path := range []string{opts.CatalogPath, opts.TransactionsPath} {
			dst, err := fm.ArchiveInputFile(path)
			if err != nil {
				return written, fmt.Errorf("archiving %s: %w", filepath.Base(path), err)
			}
			slog.Info("archived input", "from", path, "to", dst)
		}
	}

	if err := utils.WriteSummary(out, pipeline.RunSummary(res, written.Files)); err != nil {
		return written, err
	}
	return written, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// applyOverrides returns a copy of base with the command line flags applied.
func applyOverrides(base *config.Config, opts processOptions) *config.Config {
	if base == nil {
		base = config.Default()
	}
	cfg := *base

	if opts.OutputDir != "" {
		cfg.Output.Dir = opts.OutputDir
	}
	if len(opts.Formats) > 0 {
		cfg.Output.Formats = opts.Formats
	}

	targets := map[string]*bool{
		flagClampNegative: &cfg.Reconcile.ClampNegativeUnits,
		flagExcludeZero:   &cfg.Reconcile.ExcludeZeroUnits,
		flagStandardize:   &cfg.Reconcile.StandardizeBrand,
		flagKeepMissing:   &cfg.Reconcile.KeepMissingGroupKeys,
	}
	for name, v := range opts.Overrides {
		if target, ok := targets[name]; ok {
			*target = v
		}
	}
	return &cfg
}

// readInput reads a whole input file. The file name is kept as a format hint.
func readInput(path string) (pipeline.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("reading input: %w", err)
	}
	return pipeline.Input{Name: filepath.Base(path), Data: data}, nil
}
