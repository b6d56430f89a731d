// =============================================================================
// Sales Rollup - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   rollup serve [--addr :8080]
//
// The server stops on SIGINT or SIGTERM. Runs in flight get up to
// server.request_timeout to finish.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-rollup/internal/pipeline"
	"github.com/ginjaninja78/sales-rollup/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reconciliation over HTTP",
	Long: `Starts an HTTP server exposing:

  GET  /healthz        liveness and run slots
  GET  /api/rollups    configured rollups
  POST /api/reconcile  multipart upload of "catalog" and "transactions"`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *appConfig
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		srv := web.NewServer(pipeline.New(&cfg))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		slog.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}
