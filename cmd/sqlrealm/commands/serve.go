package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/marmos91/sqlrealm/internal/logger"
	"github.com/marmos91/sqlrealm/internal/telemetry"
	"github.com/marmos91/sqlrealm/pkg/api"
	"github.com/marmos91/sqlrealm/pkg/config"
	"github.com/marmos91/sqlrealm/pkg/realm"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the realm over HTTP",
	Long: `Build the realm from the configuration and serve it over HTTP.

The server exposes health checks, Prometheus metrics (when enabled) and the
realm API under /api/v1. It runs in the foreground until interrupted.

Examples:
  # Serve with the default config
  sqlrealm serve

  # Serve on another port
  sqlrealm serve --port 9090

  # Override settings with environment variables
  SQLREALM_LOGGING_LEVEL=DEBUG sqlrealm serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "sqlrealm",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "sqlrealm",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	for _, w := range config.Warnings(cfg) {
		logger.Warn("Configuration warning", "warning", w)
	}

	deps := api.Dependencies{}
	var realmOpts []realm.Option
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		realmOpts = append(realmOpts, realm.WithMetrics(realm.NewMetrics(reg)))
		deps.Gatherer = reg
		logger.Info("Metrics enabled", "path", "/metrics")
	} else {
		logger.Info("Metrics collection disabled")
	}

	r, sources, err := config.BuildRealm(ctx, cfg, realmOpts...)
	if err != nil {
		return fmt.Errorf("failed to build realm: %w", err)
	}
	defer closeSources(sources)
	deps.Realm = r
	deps.DataSources = sources

	server, err := api.NewServer(cfg.Server, deps)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.", "port", server.Port())

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		select {
		case err := <-serverDone:
			if err != nil {
				logger.Error("Server shutdown error", logger.Err(err))
				return err
			}
			logger.Info("Server stopped gracefully")
		case <-time.After(cfg.ShutdownTimeout):
			return fmt.Errorf("server did not stop within %s", cfg.ShutdownTimeout)
		}

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	return config.GetDefaultConfigPath()
}
