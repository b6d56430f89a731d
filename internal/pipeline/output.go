package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ginjaninja78/sales-rollup/internal/config"
	"github.com/ginjaninja78/sales-rollup/internal/export"
	"github.com/ginjaninja78/sales-rollup/internal/logging"
	"github.com/ginjaninja78/sales-rollup/internal/numeric"
	"github.com/ginjaninja78/sales-rollup/internal/validation"
	"github.com/ginjaninja78/sales-rollup/pkg/utils"
)

// ReportEnriched names the enriched dataset among the downloadable reports.
const ReportEnriched = "enriched"

// Sheet names of the workbook.
const (
	SheetSummary  = "Summary"
	SheetEnriched = "Merged Data"
)

// Output lists what Write produced.
type Output struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// Write stores every result file of res under the configured output
// directory, in the configured formats, followed by the run summary.
func (r *Runner) Write(ctx context.Context, res *Result) (*Output, error) {
	log := logging.FromContext(logging.WithRunID(ctx, res.RunID))

	fm := utils.NewFileManager(r.cfg.Output.Dir, r.cfg.Output.ArchiveDir)
	if err := fm.EnsureDirectories(); err != nil {
		return nil, err
	}
	dir, err := fm.RunDir(res.RunID, r.cfg.Output.RunSubdir)
	if err != nil {
		return nil, err
	}
	out := &Output{Dir: dir}

	write := func(name string, fn func(io.Writer) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		path, err := fm.WriteFile(dir, name, fn)
		if err != nil {
			return err
		}
		out.Files = append(out.Files, path)
		log.Debug("wrote output", "path", path)
		return nil
	}

	if r.cfg.WantsFormat(config.FormatCSV) {
		for _, rep := range res.Reports {
			if err := write(rep.File, func(w io.Writer) error {
				return export.WriteRollupCSV(w, rep.Result)
			}); err != nil {
				return nil, err
			}
		}
		if err := write(r.cfg.Output.EnrichedFile, func(w io.Writer) error {
			return export.WriteTableCSV(w, res.Enriched)
		}); err != nil {
			return nil, err
		}
	}

	if r.cfg.WantsFormat(config.FormatXLSX) {
		if err := write(r.cfg.Output.WorkbookFile, func(w io.Writer) error {
			return WriteWorkbook(w, res)
		}); err != nil {
			return nil, err
		}
	}

	summary := RunSummary(res, out.Files)
	if err := write(r.cfg.Output.SummaryFile, func(w io.Writer) error {
		return utils.WriteSummary(w, summary)
	}); err != nil {
		return nil, err
	}

	log.Info("outputs written", "dir", dir, "files", len(out.Files))
	return out, nil
}

// WriteWorkbook writes the Summary sheet, one sheet per rollup and the
// enriched dataset as a single XLSX workbook.
func WriteWorkbook(w io.Writer, res *Result) error {
	wb, err := export.NewWorkbook()
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.AddSummary(SheetSummary, SummaryLines(res)); err != nil {
		return err
	}
	for _, rep := range res.Reports {
		if err := wb.AddRollup(rep.Title, rep.Result); err != nil {
			return fmt.Errorf("adding rollup %s: %w", rep.Name, err)
		}
	}
	if err := wb.AddTable(SheetEnriched, res.Enriched); err != nil {
		return err
	}
	return wb.Write(w)
}

// WriteReportCSV writes one report as CSV. name is a rollup name or
// ReportEnriched.
func WriteReportCSV(w io.Writer, res *Result, name string) error {
	if name == ReportEnriched {
		return export.WriteTableCSV(w, res.Enriched)
	}
	rep := res.Report(name)
	if rep == nil {
		return fmt.Errorf("unknown report %q", name)
	}
	return export.WriteRollupCSV(w, rep.Result)
}

// SummaryLines lists the run metrics in presentation order.
func SummaryLines(res *Result) []export.KV {
	s := res.Summary
	st := res.Stats
	lines := []export.KV{
		{Key: "Run ID", Value: res.RunID},
		{Key: "Total Units", Value: s.TotalUnits.InexactFloat64()},
		{Key: "Total Sales", Value: s.TotalSales.InexactFloat64()},
		{Key: "Number of Brands", Value: s.Brands},
		{Key: "Number of Managers", Value: s.Managers},
		{Key: "Transaction Rows", Value: st.TransactionRows},
		{Key: "Catalog Rows", Value: st.CatalogRows},
		{Key: "Duplicate Catalog Keys", Value: st.DuplicateKeys},
		{Key: "Matched Rows", Value: st.Matched},
		{Key: "Unmatched Rows", Value: st.Unmatched},
		{Key: "Clamped Negative Units", Value: st.ClampedUnits},
		{Key: "Excluded Zero-Unit Rows", Value: st.ExcludedZeroUnits},
		{Key: "Output Rows", Value: st.OutputRows},
		{Key: "Type Coercions", Value: res.Warnings.TypeCoercions},
	}
	for _, sh := range s.BrandShares {
		lines = append(lines, export.KV{Key: "Sales Share % - Brand " + shareKey(sh.Key), Value: sh.Percent.InexactFloat64()})
	}
	for _, sh := range s.ManagerShares {
		lines = append(lines, export.KV{Key: "Sales Share % - Manager " + shareKey(sh.Key), Value: sh.Percent.InexactFloat64()})
	}
	return lines
}

func shareKey(k string) string {
	if k == "" {
		return "(blank)"
	}
	return k
}

// RunSummary converts res into the plain-text summary model.
func RunSummary(res *Result, files []string) utils.RunSummary {
	summary := utils.RunSummary{
		RunID:       res.RunID,
		StartTime:   res.StartedAt,
		EndTime:     res.StartedAt.Add(res.Duration),
		Inputs:      res.Inputs,
		OutputFiles: append([]string(nil), files...),
	}
	if summary.EndTime.IsZero() {
		summary.EndTime = time.Now()
	}

	s := res.Summary
	summary.Metrics = []utils.Metric{
		{Label: "Total Units", Value: numeric.Format(s.TotalUnits)},
		{Label: "Total Sales", Value: numeric.Format(s.TotalSales)},
		{Label: "Brands", Value: fmt.Sprint(s.Brands)},
		{Label: "Managers", Value: fmt.Sprint(s.Managers)},
		{Label: "Transaction Rows", Value: fmt.Sprint(res.Stats.TransactionRows)},
		{Label: "Matched", Value: fmt.Sprint(res.Stats.Matched)},
		{Label: "Unmatched", Value: fmt.Sprint(res.Stats.Unmatched)},
		{Label: "Duplicate Catalog Keys", Value: fmt.Sprint(res.Stats.DuplicateKeys)},
		{Label: "Clamped Negative Units", Value: fmt.Sprint(res.Stats.ClampedUnits)},
		{Label: "Excluded Zero-Unit Rows", Value: fmt.Sprint(res.Stats.ExcludedZeroUnits)},
		{Label: "Output Rows", Value: fmt.Sprint(res.Stats.OutputRows)},
	}
	for _, sh := range s.BrandShares {
		summary.Metrics = append(summary.Metrics, utils.Metric{
			Label: "Share " + shareKey(sh.Key),
			Value: sh.Percent.StringFixed(2) + "%",
		})
	}

	if !res.Warnings.Empty() {
		summary.Warnings = strings.Split(validation.FormatWarnings(res.Warnings), "\n")
	}
	return summary
}
