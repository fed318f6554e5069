package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakim54/cii-best-practices-badge/internal/logging"
	mcpserver "github.com/jakim54/cii-best-practices-badge/internal/mcp"
	"github.com/jakim54/cii-best-practices-badge/internal/metrics"
	"github.com/jakim54/cii-best-practices-badge/internal/wiring"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long: `Starts an MCP server over stdin/stdout exposing the infer_attributes and
list_detectives tools.

The server monitors for parent process death and exits when the client
that launched it goes away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}

			var m *metrics.Metrics
			if metricsAddr != "" {
				m = metrics.New()
			}
			rt, err := wiring.Build(cfg, wiring.Options{Metrics: m})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if m != nil {
				stop := serveMetrics(ctx, metricsAddr, m.Handler())
				defer stop()
			}

			mcpserver.WatchParent(ctx, cancel)

			logging.New("mcp").Info("starting detective MCP server over stdio (parent watchdog active)")
			return mcpserver.NewServer(rt, version).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// serveMetrics serves /metrics in the background; the returned func shuts
// it down.
func serveMetrics(ctx context.Context, addr string, h http.Handler) func() {
	log := logging.New("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "error", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
