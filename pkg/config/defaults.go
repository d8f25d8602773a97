package config

import (
	"strings"
	"time"
)

// GetDefaultConfig returns a Config populated entirely with defaults.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults. Explicit values
// already present in cfg are left untouched.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyNFSDefaults(&cfg.NFS)
	applyStagingDefaults(&cfg.Staging)
	applyBlobDefaults(&cfg.Blob)
	applyWatcherDefaults(&cfg.Watcher)
	applyQueueDefaults(&cfg.Queue)
	applyWorkerDefaults(&cfg.Worker)
	applyReaperDefaults(&cfg.Reaper)
	applyRecoveryDefaults(&cfg.Recovery)
	applyServerDefaults(&cfg.Server)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	} else {
		cfg.Level = strings.ToUpper(cfg.Level)
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space"}
	}
}

func applyNFSDefaults(cfg *NFSConfig) {
	if cfg.IncomingRoot == "" {
		cfg.IncomingRoot = "/mnt/nfs/incoming"
	}
	if cfg.ProcessingRoot == "" {
		cfg.ProcessingRoot = "/mnt/nfs/.processing"
	}
}

func applyStagingDefaults(cfg *StagingConfig) {
	if cfg.Root == "" {
		cfg.Root = "/var/lib/ingestd/staging"
	}
}

func applyBlobDefaults(cfg *BlobConfig) {
	if cfg.Container == "" {
		cfg.Container = "ingest"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
}

func applyWatcherDefaults(cfg *WatcherConfig) {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MinFileAge == 0 {
		cfg.MinFileAge = 5 * time.Second
	}
}

func applyQueueDefaults(cfg *QueueConfig) {
	if cfg.Capacity == 0 {
		cfg.Capacity = 2000
	}
}

func applyWorkerDefaults(cfg *WorkerConfig) {
	if cfg.Count == 0 {
		cfg.Count = 4
	}
	if cfg.UploadConcurrency == 0 {
		cfg.UploadConcurrency = 8
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}
}

func applyReaperDefaults(cfg *ReaperConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Retention == 0 {
		cfg.Retention = 24 * time.Hour
	}
}

func applyRecoveryDefaults(cfg *RecoveryConfig) {
	if cfg.Parallelism == 0 {
		cfg.Parallelism = 8
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.API.Enabled == nil {
		enabled := true
		cfg.API.Enabled = &enabled
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	if cfg.API.ReadTimeout == 0 {
		cfg.API.ReadTimeout = 10 * time.Second
	}
	if cfg.API.WriteTimeout == 0 {
		cfg.API.WriteTimeout = 10 * time.Second
	}
	if cfg.API.IdleTimeout == 0 {
		cfg.API.IdleTimeout = 60 * time.Second
	}
	applyMetricsDefaults(&cfg.Metrics)
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	cfg.Enabled = true
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}
