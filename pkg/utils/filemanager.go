// =============================================================================
// Sales Rollup - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a reconciliation run:
//   - Output directory management (optionally one subdirectory per run)
//   - Writing result files through a temporary file and a rename
//   - Input archival after a successful run
//   - The plain-text run summary
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to the archive directory after a successful run
//   - Failed runs leave their inputs in place
//   - An archived file never overwrites an earlier one; a timestamp is added
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a run.
type FileManager struct {
	// OutputDir is the directory where result files are placed.
	OutputDir string

	// ArchiveDir is the directory for archived input files.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2024/01/15/catalog.xlsx
	UseTimestampSubdirs bool

	// now is replaceable in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
		now:        time.Now,
	}
}

// EnsureDirectories creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureDirectories() error {
	if err := os.MkdirAll(fm.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// RunDir returns the directory a run writes into. With perRun set it is a
// fresh "<timestamp>_<runID>" subdirectory of OutputDir.
func (fm *FileManager) RunDir(runID string, perRun bool) (string, error) {
	dir := fm.OutputDir
	if perRun {
		dir = filepath.Join(fm.OutputDir, GenerateName("{timestamp}_{run}", map[string]string{"run": runID}))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}

// WriteFile writes name inside dir through a temporary file renamed into
// place, so readers never observe a partial result.
//
// RETURNS:
//   - The path of the written file.
//   - An error if writing fails; the temporary file is removed.
func (fm *FileManager) WriteFile(dir, name string, write func(io.Writer) error) (string, error) {
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := write(w); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to flush %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return path, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.archivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device moves need a copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// archivePath constructs the archive path for a file.
func (fm *FileManager) archivePath(filePath string) string {
	now := fm.now()
	dir := fm.ArchiveDir
	if fm.UseTimestampSubdirs {
		dir = filepath.Join(dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	path := filepath.Join(dir, filepath.Base(filePath))
	if !FileExists(path) {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + now.Format("20060102_150405") + ext
}

// =============================================================================
// NAMING
// =============================================================================

// GenerateName expands a name format.
//
// PLACEHOLDERS:
//
//	{uuid}      - A random UUID
//	{timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//	{date}      - Current date (YYYYMMDD)
//	{time}      - Current time (HHMMSS)
//	{<key>}     - Any value from params
//
// EXAMPLE:
//
//	format: "{timestamp}_{run}"
//	params: {"run": "3f2a..."}
//	output: "20240115_143022_3f2a..."
func GenerateName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// Metric is one labeled line of the run summary.
type Metric struct {
	Label string
	Value string
}

// RunSummary contains summary information about a run.
type RunSummary struct {
	RunID       string
	StartTime   time.Time
	EndTime     time.Time
	Inputs      []string
	Metrics     []Metric
	Warnings    []string
	OutputFiles []string
}

// WriteSummary renders summary as plain text.
func WriteSummary(w io.Writer, summary RunSummary) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", 80) + "\n"

	fmt.Fprintf(bw, "Sales Rollup - Run Summary\n%s\n", rule)
	fmt.Fprintf(bw, "Run Information:\n")
	fmt.Fprintf(bw, "  Run ID:         %s\n", summary.RunID)
	fmt.Fprintf(bw, "  Start Time:     %s\n", summary.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "  End Time:       %s\n", summary.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "  Duration:       %s\n\n", summary.EndTime.Sub(summary.StartTime))

	if len(summary.Inputs) > 0 {
		fmt.Fprintf(bw, "Inputs:\n")
		for _, in := range summary.Inputs {
			fmt.Fprintf(bw, "  %s\n", in)
		}
		fmt.Fprintln(bw)
	}

	width := 0
	for _, m := range summary.Metrics {
		if len(m.Label) > width {
			width = len(m.Label)
		}
	}
	fmt.Fprintf(bw, "Statistics:\n")
	for _, m := range summary.Metrics {
		fmt.Fprintf(bw, "  %-*s %s\n", width+1, m.Label+":", m.Value)
	}
	fmt.Fprintln(bw)

	fmt.Fprintf(bw, "Warnings:\n")
	if len(summary.Warnings) == 0 {
		fmt.Fprintf(bw, "  none\n")
	}
	for _, warn := range summary.Warnings {
		fmt.Fprintf(bw, "  %s\n", warn)
	}
	fmt.Fprintln(bw)

	if len(summary.OutputFiles) > 0 {
		fmt.Fprintf(bw, "Output Files:\n")
		for _, f := range summary.OutputFiles {
			fmt.Fprintf(bw, "  %s\n", f)
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintf(bw, "%sEnd of Summary\n", rule)
	return bw.Flush()
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
