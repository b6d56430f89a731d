// =============================================================================
// Sales Rollup - Pipeline
// =============================================================================
//
// This module orchestrates one reconciliation run, from the two uploaded
// files to the enriched dataset, the configured rollups and the summary.
//
// PIPELINE:
//   1. Load the catalog and transactions files (CSV or XLSX)
//   2. Resolve columns, deduplicate the catalog and join (reconcile.Enrich)
//   3. Resolve column placeholders of the configured rollups
//   4. Build every rollup
//   5. Compute the run summary
//
// Writing results is a separate step (see output.go) so that the HTTP surface
// can stream them without touching the disk.
//
// CONCURRENCY:
//   A run shares no state with other runs. A Runner may be used from several
//   goroutines at once.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/sales-rollup/internal/config"
	"github.com/ginjaninja78/sales-rollup/internal/csvparser"
	"github.com/ginjaninja78/sales-rollup/internal/loader"
	"github.com/ginjaninja78/sales-rollup/internal/logging"
	"github.com/ginjaninja78/sales-rollup/internal/reconcile"
	"github.com/ginjaninja78/sales-rollup/internal/rollup"
	"github.com/ginjaninja78/sales-rollup/internal/types"
	"github.com/ginjaninja78/sales-rollup/internal/validation"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Input is one uploaded file.
type Input struct {
	// Name is the original file name, used as a format hint.
	Name string

	Data []byte
}

// Report is one built rollup.
type Report struct {
	Name   string         `json:"name"`
	Title  string         `json:"title"`
	File   string         `json:"file"`
	Result *rollup.Result `json:"result"`
}

// Result is the outcome of a successful run.
type Result struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	// Inputs lists the uploaded file names.
	Inputs []string `json:"inputs"`

	Enriched *types.Table      `json:"-"`
	Columns  reconcile.Columns `json:"columns"`
	Stats    reconcile.Stats   `json:"stats"`
	Reports  []Report          `json:"reports"`
	Summary  Summary           `json:"summary"`

	// Warnings aggregates the non-fatal conditions of the whole run.
	Warnings validation.Warnings `json:"warnings"`
}

// Report returns the report called name, or nil.
func (r *Result) Report(name string) *Report {
	for i := range r.Reports {
		if r.Reports[i].Name == name {
			return &r.Reports[i]
		}
	}
	return nil
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes runs with a fixed configuration.
type Runner struct {
	cfg      *config.Config
	registry *loader.Registry
}

// New creates a Runner. A nil cfg uses config.Default().
func New(cfg *config.Config) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Runner{cfg: cfg, registry: loader.DefaultRegistry()}
}

// Config returns the runner's configuration.
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// WithConfig returns a Runner sharing the parsers but using cfg.
func (r *Runner) WithConfig(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg, registry: r.registry}
}

// Run executes the pipeline. Fatal column errors are returned unchanged so
// that validation.MapError can classify them.
func (r *Runner) Run(ctx context.Context, catalog, transactions Input) (*Result, error) {
	res := &Result{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Inputs:    []string{catalog.Name, transactions.Name},
	}
	ctx = logging.WithRunID(ctx, res.RunID)
	log := logging.FromContext(ctx)

	log.Info("run started", "catalog", catalog.Name, "transactions", transactions.Name)

	// =========================================================================
	// STEP 1: LOAD INPUTS
	// =========================================================================

	catalogTable, err := r.registry.Load(catalog.Data, catalog.Name, validation.TableCatalog, r.loadOptions(r.cfg.Input.CatalogSheet))
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	txnTable, err := r.registry.Load(transactions.Data, transactions.Name, validation.TableTransactions, r.loadOptions(r.cfg.Input.TransactionsSheet))
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	log.Debug("inputs loaded", "catalog_rows", catalogTable.Len(), "transaction_rows", txnTable.Len())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 2: JOIN & ENRICH
	// =========================================================================

	enriched, err := reconcile.Enrich(txnTable, catalogTable, reconcile.Options{
		ClampNegativeUnits: r.cfg.Reconcile.ClampNegativeUnits,
		ExcludeZeroUnits:   r.cfg.Reconcile.ExcludeZeroUnits,
		StandardizeBrand:   r.cfg.Reconcile.StandardizeBrand,
	})
	if err != nil {
		log.Warn("run rejected", "error", err)
		return nil, err
	}
	res.Enriched = enriched.Table
	res.Columns = enriched.Columns
	res.Stats = enriched.Stats
	log.Debug("enriched",
		"matched", enriched.Stats.Matched,
		"unmatched", enriched.Stats.Unmatched,
		"duplicate_keys", enriched.Stats.DuplicateKeys,
		"excluded_zero_units", enriched.Stats.ExcludedZeroUnits,
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 3 & 4: BUILD ROLLUPS
	// =========================================================================

	measures := ResolveColumns(r.cfg.Measures, enriched.Columns)
	opts := rollup.Options{KeepMissingKeys: r.cfg.Reconcile.KeepMissingGroupKeys}

	for _, rc := range r.cfg.Rollups {
		keys := ResolveColumns(rc.Keys, enriched.Columns)
		built, err := rollup.Build(enriched.Table, keys, measures, opts)
		if err != nil {
			return nil, fmt.Errorf("building rollup %s: %w", rc.Name, err)
		}
		res.Reports = append(res.Reports, Report{Name: rc.Name, Title: rc.Title, File: rc.File, Result: built})
		log.Debug("rollup built", "rollup", rc.Name, "rows", len(built.Rows), "dropped_rows", built.DroppedRows)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	// =========================================================================
	// STEP 5: SUMMARY
	// =========================================================================

	summary, salesCoercions := Summarize(enriched.Table, enriched.Columns, opts.KeepMissingKeys)
	res.Summary = summary
	res.Warnings = enriched.Stats.Warnings.Add(validation.Warnings{TypeCoercions: salesCoercions})
	res.Duration = time.Since(res.StartedAt)

	log.Info("run completed",
		"rows", enriched.Stats.OutputRows,
		"rollups", len(res.Reports),
		"type_coercions", res.Warnings.TypeCoercions,
		"unmatched_keys", res.Warnings.UnmatchedKeys,
		"duration", res.Duration,
	)
	return res, nil
}

func (r *Runner) loadOptions(sheet string) loader.Options {
	return loader.Options{
		CSV: csvparser.Settings{
			Delimiter:  r.cfg.Input.Delimiter,
			Encoding:   r.cfg.Input.Encoding,
			HeaderRows: r.cfg.Input.HeaderRows,
		},
		Sheet: sheet,
	}
}

// ResolveColumns replaces column placeholders with the names the join
// produced. Other names pass through unchanged.
func ResolveColumns(names []string, cols reconcile.Columns) []string {
	out := make([]string, len(names))
	for i, name := range names {
		switch name {
		case config.PlaceholderUnits:
			out[i] = cols.Units
		case config.PlaceholderAmount:
			out[i] = cols.Sales
		case config.PlaceholderClassification:
			out[i] = cols.Classification
		case config.PlaceholderManager:
			out[i] = cols.Manager
		case config.PlaceholderBrand:
			out[i] = cols.Brand
		default:
			out[i] = name
		}
	}
	return out
}
