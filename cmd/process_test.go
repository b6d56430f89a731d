package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-rollup/internal/config"
	"github.com/ginjaninja78/sales-rollup/internal/validation"
)

func writeInputs(t *testing.T) (catalog, transactions string) {
	t.Helper()
	dir := t.TempDir()
	catalog = filepath.Join(dir, "catalog.csv")
	transactions = filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(catalog, []byte(
		"Flipkart Sku Name,Brand Manager,Brand,CP,FNS\n"+
			"A1,Priya,acme widgets,10,F1\n"+
			"A2,Ravi,beta,5,F2\n"), 0o644))
	require.NoError(t, os.WriteFile(transactions, []byte(
		"SKU ID,Gross Units,Sales\n"+
			"A1,5,100\n"+
			"A2,3,60\n"+
			"A1,-2,10\n"), 0o644))
	return catalog, transactions
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.ArchiveDir = t.TempDir()
	cfg.Output.ArchiveInputs = false
	return cfg
}

func TestRunProcess_WritesOutputs(t *testing.T) {
	catalog, transactions := writeInputs(t)
	cfg := testConfig(t)

	var out bytes.Buffer
	written, err := runProcess(context.Background(), cfg, processOptions{
		CatalogPath:      catalog,
		TransactionsPath: transactions,
		Formats:          []string{config.FormatCSV},
	}, &out)
	require.NoError(t, err)
	require.NotNil(t, written)

	// four rollups, the enriched dataset and the summary
	assert.Len(t, written.Files, 6)
	data, err := os.ReadFile(filepath.Join(written.Dir, "pivot_by_brand.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Brand,Sum of Gross Units,Sum of Sales\nAcme Widgets,5,100\nBeta,3,60\nGrand Total,8,160\n", string(data))

	assert.Contains(t, out.String(), "Total Sales")
	assert.FileExists(t, catalog, "inputs stay in place without archive_inputs")
}

func TestRunProcess_DryRun(t *testing.T) {
	catalog, transactions := writeInputs(t)
	cfg := testConfig(t)

	var out bytes.Buffer
	written, err := runProcess(context.Background(), cfg, processOptions{
		CatalogPath:      catalog,
		TransactionsPath: transactions,
		DryRun:           true,
	}, &out)
	require.NoError(t, err)
	assert.Nil(t, written)
	assert.Contains(t, out.String(), "Dry run")

	entries, err := os.ReadDir(cfg.Output.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunProcess_ArchivesInputs(t *testing.T) {
	catalog, transactions := writeInputs(t)
	cfg := testConfig(t)
	cfg.Output.ArchiveInputs = true

	_, err := runProcess(context.Background(), cfg, processOptions{
		CatalogPath:      catalog,
		TransactionsPath: transactions,
		Formats:          []string{config.FormatCSV},
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.NoFileExists(t, catalog)
	assert.NoFileExists(t, transactions)
}

func TestRunProcess_Overrides(t *testing.T) {
	catalog, transactions := writeInputs(t)
	cfg := testConfig(t)

	written, err := runProcess(context.Background(), cfg, processOptions{
		CatalogPath:      catalog,
		TransactionsPath: transactions,
		Formats:          []string{config.FormatCSV},
		Overrides:        map[string]bool{flagClampNegative: false, flagStandardize: false},
	}, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(written.Dir, "pivot_by_brand.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Brand,Sum of Gross Units,Sum of Sales\nacme widgets,3,110\nbeta,3,60\nGrand Total,6,170\n", string(data))
}

func TestRunProcess_Errors(t *testing.T) {
	_, transactions := writeInputs(t)
	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	tests := []struct {
		name     string
		opts     processOptions
		wantCode string
	}{
		{"missing file", processOptions{CatalogPath: "nope.csv", TransactionsPath: transactions}, "ERR000"},
		{"empty catalog", processOptions{CatalogPath: empty, TransactionsPath: transactions}, "FILE004"},
		{"catalog as transactions", processOptions{CatalogPath: transactions, TransactionsPath: transactions}, "COL001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runProcess(context.Background(), testConfig(t), tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, validation.MapError(err).Code)
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	base := config.Default()
	got := applyOverrides(base, processOptions{
		OutputDir: "/tmp/out",
		Formats:   []string{"xlsx"},
		Overrides: map[string]bool{flagExcludeZero: false, flagKeepMissing: false},
	})

	assert.Equal(t, "/tmp/out", got.Output.Dir)
	assert.Equal(t, []string{"xlsx"}, got.Output.Formats)
	assert.False(t, got.Reconcile.ExcludeZeroUnits)
	assert.False(t, got.Reconcile.KeepMissingGroupKeys)
	assert.True(t, got.Reconcile.ClampNegativeUnits)
	assert.True(t, got.Reconcile.StandardizeBrand)

	assert.True(t, base.Reconcile.ExcludeZeroUnits, "base config is not modified")
	assert.Equal(t, "./output", base.Output.Dir)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rollup.yaml")
	var out bytes.Buffer

	require.NoError(t, writeDefaultConfig(&out, path, false))
	assert.Contains(t, out.String(), path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Rollups, cfg.Rollups)

	assert.Error(t, writeDefaultConfig(&out, path, false))
	assert.NoError(t, writeDefaultConfig(&out, path, true))
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(config.EnvOutputDir, "/srv/rollups")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/srv/rollups", cfg.Output.Dir)
	assert.Equal(t, config.Default().Rollups, cfg.Rollups)
}
