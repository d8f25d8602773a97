package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const sampleConfigTemplate = `# ingestd Configuration File
#
# ingestd watches an NFS-mounted directory for newly arrived files,
# stages and uploads them to Azure Blob Storage, and marks them complete.

logging:
  level: %s
  format: %s
  output: %s

telemetry:
  enabled: %t
  endpoint: ""
  insecure: false
  sample_rate: %g

nfs:
  incoming_root: %s
  processing_root: %s

staging:
  root: %s

blob:
  # Set exactly one authentication method: connection_string,
  # account_name + account_key, or account_url (managed identity).
  connection_string: ""
  account_name: ""
  account_key: ""
  account_url: ""
  container: %s
  max_retries: %d

watcher:
  poll_interval: %s
  min_file_age: %s

queue:
  capacity: %d

worker:
  count: %d
  upload_concurrency: %d
  max_attempts: %d

reaper:
  interval: %s
  retention: %s

recovery:
  parallelism: %d

server:
  shutdown_timeout: %s
  api:
    enabled: true
    port: %d
    read_timeout: %s
    write_timeout: %s
    idle_timeout: %s
  metrics:
    enabled: true
    port: %d
`

// InitConfig writes a fully-commented sample configuration file to the
// default location. It returns the path written to.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration file to path. If the file
// already exists and force is false, it returns an error.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	cfg := GetDefaultConfig()

	contents := fmt.Sprintf(sampleConfigTemplate,
		cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output,
		cfg.Telemetry.Enabled, cfg.Telemetry.SampleRate,
		cfg.NFS.IncomingRoot, cfg.NFS.ProcessingRoot,
		cfg.Staging.Root,
		cfg.Blob.Container, cfg.Blob.MaxRetries,
		cfg.Watcher.PollInterval, cfg.Watcher.MinFileAge,
		cfg.Queue.Capacity,
		cfg.Worker.Count, cfg.Worker.UploadConcurrency, cfg.Worker.MaxAttempts,
		cfg.Reaper.Interval, cfg.Reaper.Retention,
		cfg.Recovery.Parallelism,
		cfg.Server.ShutdownTimeout,
		cfg.Server.API.Port, cfg.Server.API.ReadTimeout, cfg.Server.API.WriteTimeout, cfg.Server.API.IdleTimeout,
		cfg.Server.Metrics.Port,
	)

	dir := filepath.Dir(path)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
