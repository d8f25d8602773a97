package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/ingestd/internal/blobstore"
	"github.com/marmos91/ingestd/internal/ingest"
	"github.com/marmos91/ingestd/internal/logger"
	"github.com/marmos91/ingestd/internal/metrics"
	"github.com/marmos91/ingestd/internal/telemetry"
	"github.com/marmos91/ingestd/pkg/api"
	"github.com/marmos91/ingestd/pkg/config"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingest engine",
	Long: `Start the ingestd ingest engine in the foreground.

ingestd watches the configured NFS incoming directory, stages and
uploads newly stable files to Azure Blob Storage, and runs startup
recovery plus a periodic completion-marker reaper. The process also
serves a control-surface HTTP API for session management and health
checks.

The process runs until it receives SIGINT or SIGTERM, at which point it
cancels the watcher, workers and reaper and waits for them to exit.
In-flight uploads are aborted; their files stay under .processing/ and
are picked up by the next startup recovery.

Examples:
  # Start with the default config file
  ingestd start

  # Start with a custom config file
  ingestd start --config /etc/ingestd/config.yaml`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	logger.Info("starting ingestd", "config_source", getConfigSource(configFile))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "ingestd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() { _ = telemetryShutdown(context.Background()) }()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "ingestd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() { _ = profilingShutdown() }()

	if cfg.Server.Metrics.Enabled {
		metrics.Init()
	}

	metricsDone := make(chan error, 1)
	if cfg.Server.Metrics.Enabled {
		go func() {
			metricsDone <- metrics.Serve(ctx, cfg.Server.Metrics.Port)
		}()
	}

	store, err := newBlobStore(cfg.Blob, cfg.Worker.UploadConcurrency)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}

	manager := ingest.NewManager(ingest.ManagerConfig{
		IncomingRoot:   cfg.NFS.IncomingRoot,
		ProcessingRoot: cfg.NFS.ProcessingRoot,
		StagingRoot:    cfg.Staging.Root,
		QueueCapacity:  cfg.Queue.Capacity,
		Watcher: ingest.WatcherConfig{
			IncomingRoot: cfg.NFS.IncomingRoot,
			PollInterval: cfg.Watcher.PollInterval,
			MinFileAge:   cfg.Watcher.MinFileAge,
			Extensions:   cfg.Watcher.Extensions,
		},
		Worker: ingest.WorkerPoolConfig{
			Count:             cfg.Worker.Count,
			ProcessingRoot:    cfg.NFS.ProcessingRoot,
			StagingRoot:       cfg.Staging.Root,
			UploadConcurrency: cfg.Worker.UploadConcurrency,
			MaxAttempts:       cfg.Worker.MaxAttempts,
		},
		Reaper: ingest.ReaperConfig{
			ProcessingRoot: cfg.NFS.ProcessingRoot,
			Interval:       cfg.Reaper.Interval,
			Retention:      cfg.Reaper.Retention,
		},
		RecoveryParallelism: cfg.Recovery.Parallelism,
	}, store)

	var apiServer *api.Server
	if cfg.Server.API.IsEnabled() {
		apiServer = api.NewServer(cfg.Server.API, manager)
	}

	managerDone := make(chan error, 1)
	go func() {
		managerDone <- manager.Run(ctx)
	}()

	apiDone := make(chan error, 1)
	if apiServer != nil {
		go func() {
			apiDone <- apiServer.Start(ctx)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("ingestd is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-managerDone; err != nil {
			logger.Error("manager shutdown error", "error", err)
			return err
		}
		if apiServer != nil {
			if err := <-apiDone; err != nil {
				logger.Error("API server shutdown error", "error", err)
				return err
			}
		}
		if cfg.Server.Metrics.Enabled {
			if err := <-metricsDone; err != nil {
				logger.Error("metrics server shutdown error", "error", err)
				return err
			}
		}
	case err := <-managerDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("manager exited with error", "error", err)
			return err
		}
	case err := <-apiDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("API server exited with error", "error", err)
			return err
		}
	case err := <-metricsDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("metrics server exited with error", "error", err)
			return err
		}
	}

	logger.Info("ingestd stopped")
	return nil
}

func newBlobStore(cfg config.BlobConfig, uploadConcurrency int) (*blobstore.AzureStore, error) {
	return blobstore.NewAzureStore(blobstore.Config{
		AccountURL:        cfg.AccountURL,
		ConnectionString:  cfg.ConnectionString,
		AccountName:       cfg.AccountName,
		AccountKey:        cfg.AccountKey,
		Container:         cfg.Container,
		MaxRetries:        cfg.MaxRetries,
		UploadConcurrency: uploadConcurrency,
	})
}
