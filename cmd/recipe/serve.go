package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/spf13/cobra"

	"github.com/cloud8421/recipe"
	"github.com/cloud8421/recipe/internal/cli"
	"github.com/cloud8421/recipe/internal/presentation/tui"
	httpadapter "github.com/cloud8421/recipe/pkg/adapters/http"
	"github.com/cloud8421/recipe/pkg/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recipe HTTP server",
	Long: `Starts the engine in server mode, exposing runs, the recipe catalog
and Prometheus metrics over a JSON API.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		opts := engineOptions(cmd)

		logger := cli.NewServeLogger(opts.Debug, jsonLogs)

		// Runs started over HTTP feed both the log and the metrics
		// observer; per-recipe or per-call telemetry toggles decide
		// whether they fire.
		metrics := prometheus.NewRegistry()
		observer := telemetry.NewMulti(
			telemetry.NewLogObserver(logger),
			telemetry.NewPrometheusObserver(metrics),
		)
		opts.EngineOptions = append(opts.EngineOptions, recipe.WithObserver(observer))

		rt, err := cli.CreateRuntime(opts, logger)
		if err != nil {
			logger.Error("Engine initialization failed", "err", err)
			os.Exit(1)
		}
		defer rt.Close()

		handlerOpts := []httpadapter.Option{
			httpadapter.WithLogger(logger),
			httpadapter.WithMetrics(metrics),
		}
		if rt.Store != nil {
			handlerOpts = append(handlerOpts, httpadapter.WithStore(rt.Store))
		}

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: httpadapter.NewHandler(rt.Engine, handlerOpts...),
		}

		watchCtx, cancelWatch := context.WithCancel(context.Background())
		defer cancelWatch()
		watchCatalog(watchCtx, rt, logger, metrics)

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			tui.PrintBanner(recipe.Version)
			logger.Info("Starting Recipe Server", "addr", srv.Addr, "catalog", opts.CatalogDir)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			logger.Error("Server error", "err", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("Start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}
			logger.Info("Recipe Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("json-logs", false, "Emit logs as JSON")
}

// watchCatalog logs and counts catalog reloads for the lifetime of the
// server. Clients get the same signal through the /events stream.
func watchCatalog(ctx context.Context, rt *cli.Runtime, logger *slog.Logger, metrics prometheus.Registerer) {
	events, err := rt.Engine.Watch(ctx)
	if err != nil {
		logger.Debug("Catalog watch unavailable", "err", err)
		return
	}

	reloadsTotal := promauto.With(metrics).NewCounter(prometheus.CounterOpts{
		Namespace: "recipe",
		Name:      "catalog_reloads_total",
		Help:      "Times the recipe catalog was reloaded from disk.",
	})

	go func() {
		reloads := 0
		for range events {
			reloads++
			reloadsTotal.Inc()
			logger.Info("Catalog reloaded", "count", reloads)
		}
	}()
}
