package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Reconcile.ClampNegativeUnits)
	assert.True(t, cfg.Reconcile.ExcludeZeroUnits)
	assert.True(t, cfg.Reconcile.StandardizeBrand)
	assert.True(t, cfg.Reconcile.KeepMissingGroupKeys)
	assert.Len(t, cfg.Rollups, 4)
	assert.Equal(t, []string{PlaceholderUnits, PlaceholderAmount}, cfg.Measures)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, `
reconcile:
  exclude_zero_units: false
output:
  dir: /tmp/out
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Reconcile.ExcludeZeroUnits)
	assert.True(t, cfg.Reconcile.ClampNegativeUnits)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.Equal(t, "merged_sales_data.csv", cfg.Output.EnrichedFile)
	assert.Len(t, cfg.Rollups, 4)
}

func TestLoad_CustomRollupGetsFileAndTitle(t *testing.T) {
	path := writeFile(t, `
rollups:
  - name: by_vendor
    keys: ["Vendor Code"]
server:
  max_wait: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Rollups, 1)
	assert.Equal(t, "by_vendor.csv", cfg.Rollups[0].File)
	assert.Equal(t, "by_vendor", cfg.Rollups[0].Title)
	assert.Equal(t, 5*time.Second, cfg.Server.MaxWait)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "reconcile: [", "parsing config"},
		{"bad encoding", "input:\n  encoding: utf-16\n", "input.encoding"},
		{"bad format", "output:\n  formats: [xml]\n", "unknown format"},
		{"rollup without keys", "rollups:\n  - name: x\n", "at least one key"},
		{"duplicate rollup", "rollups:\n  - name: x\n    keys: [a]\n  - name: x\n    keys: [b]\n", "duplicate name"},
		{"bad log format", "logging:\n  format: xml\n", "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	cfg, found, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Reconcile.StandardizeBrand = false
	cfg.Output.Formats = []string{FormatCSV}

	require.NoError(t, Save(path, cfg))

	loaded, found, err := LoadOrDefault(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvServerAddr, ":9999")
	t.Setenv(EnvOutputDir, "")

	cfg := Default()
	ApplyEnv(cfg)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "./output", cfg.Output.Dir)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestWantsFormat(t *testing.T) {
	cfg := Default()
	cfg.Output.Formats = []string{"CSV"}
	assert.True(t, cfg.WantsFormat(FormatCSV))
	assert.False(t, cfg.WantsFormat(FormatXLSX))
}
