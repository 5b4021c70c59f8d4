package cli

import (
	"context"
	"log"
	"net/http"

	"github.com/fleetlens/fleetlens/internal/api"
	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/internal/logging"
	"github.com/fleetlens/fleetlens/internal/metrics"
	"github.com/fleetlens/fleetlens/internal/report"
	"github.com/fleetlens/fleetlens/internal/store"
	"github.com/fleetlens/fleetlens/internal/telematics"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s", "server", "run"},
	Short:   "Start the FleetLens server",
	Long: `Start the FleetLens HTTP server.

The server exposes the configuration, token-exchange, vehicle-listing and
report endpoints consumed by the browser client.

Example:
  fleetlens serve --config config.yaml`,
	RunE: runServe,
}

var serveFlags struct {
	Host string
	Port int
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.Host, "host", "", "Server host (overrides config)")
	serveCmd.Flags().IntVar(&serveFlags.Port, "port", 0, "Server port (overrides config)")

	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if globalFlags.Verbose {
		log.Printf("Starting FleetLens server, config path: %s", globalFlags.Config)
	}

	loader := config.NewLoader(globalFlags.Config)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	if serveFlags.Host != "" {
		cfg.Server.Host = serveFlags.Host
	}
	if serveFlags.Port != 0 {
		cfg.Server.HTTPPort = serveFlags.Port
	}

	logger := logging.NewLogger(logging.WithLevel(logging.LogLevel(cfg.Server.LogLevel)))
	m := metrics.NewMetrics("fleetlens")

	configs := store.NewConfigStore(cfg.Storage.ConfigPath)
	reports := store.NewReportStore(cfg.Storage.ReportsDir)
	vendor := telematics.NewClient(cfg.Vendor, logger)
	generator := report.NewGenerator(vendor, configs, reports, logger, m)

	server := api.NewServer(cfg.Server, cfg.API, configs, reports, vendor, generator, m, logger)

	// Hot reload: vendor endpoints and rate limits take effect without a
	// restart; listen address, TLS and storage paths do not.
	loader.SetOnChange(func(next *config.Config) {
		vendor.UpdateEndpoints(next.Vendor)
		server.ApplyConfig(next)
		logger.Info("configuration reloaded", "path", globalFlags.Config)
	})

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if err := loader.Watch(watchCtx); err != nil {
		logger.Warn("config watch disabled", "error", err.Error())
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	signals := api.SetupSignalHandler()
	select {
	case err := <-errCh:
		return err
	case sig := <-signals:
		logger.Info("signal received, shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
