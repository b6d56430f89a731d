// =============================================================================
// Sales Rollup - Main Entry Point
// =============================================================================
//
// USAGE:
//   rollup process      - Reconcile two files and write the rollups
//   rollup serve        - Serve the reconciliation over HTTP
//   rollup init-config  - Write the default configuration file
//   rollup version      - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Loading, reconciliation, rollups, export and HTTP
//   - pkg/utils/     : Output files, archival and the run summary
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sales-rollup/cmd"
)

func main() {
	cmd.Execute()
}
