package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ginjaninja78/sales-rollup/internal/config"
	"github.com/ginjaninja78/sales-rollup/internal/export"
	"github.com/ginjaninja78/sales-rollup/internal/loader"
	"github.com/ginjaninja78/sales-rollup/internal/pipeline"
	"github.com/ginjaninja78/sales-rollup/internal/reconcile"
	"github.com/ginjaninja78/sales-rollup/internal/rollup"
	"github.com/ginjaninja78/sales-rollup/internal/validation"
)

// Form fields of POST /api/reconcile.
const (
	FieldCatalog      = "catalog"
	FieldTransactions = "transactions"
)

// Response formats.
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var errFileTooLarge = errors.New("file too large")

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ReportRow is one labeled rollup line.
type ReportRow struct {
	Kind  rollup.Kind `json:"kind"`
	Level int         `json:"level"`
	Cells []string    `json:"cells"`
}

// ReportView is a rollup rendered the way the exports render it.
type ReportView struct {
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Header      []string    `json:"header"`
	Rows        []ReportRow `json:"rows"`
	DroppedRows int         `json:"dropped_rows"`
}

// ReconcileResponse is the JSON body of a successful run.
type ReconcileResponse struct {
	RunID    string              `json:"run_id"`
	Columns  reconcile.Columns   `json:"columns"`
	Stats    reconcile.Stats     `json:"stats"`
	Summary  pipeline.Summary    `json:"summary"`
	Warnings validation.Warnings `json:"warnings"`
	Reports  []ReportView        `json:"reports"`
}

func newReconcileResponse(res *pipeline.Result) ReconcileResponse {
	resp := ReconcileResponse{
		RunID:    res.RunID,
		Columns:  res.Columns,
		Stats:    res.Stats,
		Summary:  res.Summary,
		Warnings: res.Warnings,
	}
	for _, rep := range res.Reports {
		header, cells := export.Render(rep.Result)
		view := ReportView{
			Name:        rep.Name,
			Title:       rep.Title,
			Header:      header,
			Rows:        make([]ReportRow, len(cells)),
			DroppedRows: rep.Result.DroppedRows,
		}
		for i, row := range rep.Result.Rows {
			view.Rows[i] = ReportRow{Kind: row.Kind, Level: row.Level, Cells: cells[i]}
		}
		resp.Reports = append(resp.Reports, view)
	}
	return resp
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_runs":     s.limiter.Active(),
		"available_slots": s.limiter.Available(),
	})
}

func (s *Server) handleListRollups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runner.Config().Rollups)
}

// handleReconcile runs the pipeline on the two uploaded files.
//
// Query parameters:
//
//	format                   json (default), xlsx or csv
//	report                   with format=csv: a rollup name or "enriched"
//	clamp_negative_units     override of the configured flag
//	exclude_zero_units       override of the configured flag
//	standardize_brand        override of the configured flag
//	keep_missing_group_keys  override of the configured flag
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatJSON
	}
	report := r.URL.Query().Get("report")
	if report == "" {
		report = pipeline.ReportEnriched
	}
	switch format {
	case FormatJSON, FormatXLSX, FormatCSV:
	default:
		respondError(w, r, fmt.Errorf("unsupported format %q", format), http.StatusBadRequest)
		return
	}

	cfg, err := s.requestConfig(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if format == FormatCSV && !knownReport(cfg, report) {
		respondError(w, r, fmt.Errorf("unknown report %q", report), http.StatusBadRequest)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer s.limiter.Release()

	maxSize := s.cfg.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: limit is %d MB", errFileTooLarge, s.cfg.MaxUploadMB), 0)
			return
		}
		respondError(w, r, fmt.Errorf("invalid form: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	catalog, err := formInput(r, FieldCatalog)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	transactions, err := formInput(r, FieldTransactions)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	res, err := s.runner.WithConfig(cfg).Run(r.Context(), catalog, transactions)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	w.Header().Set("X-Run-ID", res.RunID)

	switch format {
	case FormatXLSX:
		var buf bytes.Buffer
		if err := pipeline.WriteWorkbook(&buf, res); err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		serveAttachment(w, xlsxContentType, cfg.Output.WorkbookFile, buf.Bytes())

	case FormatCSV:
		var buf bytes.Buffer
		if err := pipeline.WriteReportCSV(&buf, res, report); err != nil {
			respondError(w, r, err, http.StatusBadRequest)
			return
		}
		serveAttachment(w, "text/csv; charset=utf-8", csvFileName(cfg, res, report), buf.Bytes())

	default:
		writeJSON(w, http.StatusOK, newReconcileResponse(res))
	}
}

// requestConfig copies the server configuration and applies query overrides.
func (s *Server) requestConfig(r *http.Request) (*config.Config, error) {
	cfg := *s.runner.Config()
	q := r.URL.Query()

	overrides := []struct {
		name   string
		target *bool
	}{
		{"clamp_negative_units", &cfg.Reconcile.ClampNegativeUnits},
		{"exclude_zero_units", &cfg.Reconcile.ExcludeZeroUnits},
		{"standardize_brand", &cfg.Reconcile.StandardizeBrand},
		{"keep_missing_group_keys", &cfg.Reconcile.KeepMissingGroupKeys},
	}
	for _, o := range overrides {
		raw := q.Get(o.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s", raw, o.name)
		}
		*o.target = v
	}
	return &cfg, nil
}

// formInput reads one uploaded file of the multipart form.
func formInput(r *http.Request, field string) (pipeline.Input, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("%s: %w", field, loader.ErrNoFile)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("reading %s: %w", field, err)
	}
	return pipeline.Input{Name: header.Filename, Data: data}, nil
}

func knownReport(cfg *config.Config, name string) bool {
	if name == pipeline.ReportEnriched {
		return true
	}
	for _, rc := range cfg.Rollups {
		if rc.Name == name {
			return true
		}
	}
	return false
}

func csvFileName(cfg *config.Config, res *pipeline.Result, report string) string {
	if report == pipeline.ReportEnriched {
		return cfg.Output.EnrichedFile
	}
	if rep := res.Report(report); rep != nil {
		return rep.File
	}
	return report + ".csv"
}

func serveAttachment(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
