// Package config loads and validates ingestd's configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/ingestd/pkg/api"
)

// Config represents ingestd's configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (INGESTD_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	NFS     NFSConfig     `mapstructure:"nfs" yaml:"nfs"`
	Staging StagingConfig `mapstructure:"staging" yaml:"staging"`
	Blob    BlobConfig    `mapstructure:"blob" yaml:"blob"`

	Watcher  WatcherConfig  `mapstructure:"watcher" yaml:"watcher"`
	Queue    QueueConfig    `mapstructure:"queue" yaml:"queue"`
	Worker   WorkerConfig   `mapstructure:"worker" yaml:"worker"`
	Reaper   ReaperConfig   `mapstructure:"reaper" yaml:"reaper"`
	Recovery RecoveryConfig `mapstructure:"recovery" yaml:"recovery"`

	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64         `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// NFSConfig locates the NFS-mounted incoming and processing directories.
// Both must resolve to the same filesystem, since the claim stage depends
// on an atomic same-filesystem rename.
type NFSConfig struct {
	IncomingRoot   string `mapstructure:"incoming_root" validate:"required" yaml:"incoming_root"`
	ProcessingRoot string `mapstructure:"processing_root" validate:"required" yaml:"processing_root"`
}

// StagingConfig locates the local (non-NFS) staging directory used as the
// upload source.
type StagingConfig struct {
	Root string `mapstructure:"root" validate:"required" yaml:"root"`
}

// BlobConfig configures the Azure Blob Storage upload target.
type BlobConfig struct {
	AccountURL       string `mapstructure:"account_url" yaml:"account_url"`
	ConnectionString string `mapstructure:"connection_string" yaml:"connection_string"`
	AccountName      string `mapstructure:"account_name" yaml:"account_name"`
	AccountKey       string `mapstructure:"account_key" yaml:"account_key"`
	Container        string `mapstructure:"container" validate:"required" yaml:"container"`
	MaxRetries       int32  `mapstructure:"max_retries" validate:"omitempty,gte=0" yaml:"max_retries"`
}

// WatcherConfig configures the incoming/ stability-detection poll loop.
type WatcherConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required,gt=0" yaml:"poll_interval"`
	MinFileAge   time.Duration `mapstructure:"min_file_age" validate:"gte=0" yaml:"min_file_age"`
	Extensions   []string      `mapstructure:"extensions" yaml:"extensions,omitempty"`
}

// QueueConfig configures the bounded work queue.
type QueueConfig struct {
	Capacity int `mapstructure:"capacity" validate:"gte=0" yaml:"capacity"`
}

// WorkerConfig configures the worker pool.
type WorkerConfig struct {
	Count             int `mapstructure:"count" validate:"required,gt=0" yaml:"count"`
	UploadConcurrency int `mapstructure:"upload_concurrency" validate:"omitempty,gt=0" yaml:"upload_concurrency"`
	MaxAttempts       int `mapstructure:"max_attempts" validate:"required,gt=0" yaml:"max_attempts"`
}

// ReaperConfig configures the periodic completion-marker sweep.
type ReaperConfig struct {
	Interval  time.Duration `mapstructure:"interval" validate:"required,gt=0" yaml:"interval"`
	Retention time.Duration `mapstructure:"retention" validate:"required,gt=0" yaml:"retention"`
}

// RecoveryConfig configures the startup recovery scan.
type RecoveryConfig struct {
	Parallelism int `mapstructure:"parallelism" validate:"required,gt=0" yaml:"parallelism"`
}

// ServerConfig collects process-level server settings.
type ServerConfig struct {
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
	API             api.APIConfig `mapstructure:"api" yaml:"api"`
	Metrics         MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages pointing the
// operator at `ingestd init` when no config file exists.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  ingestd init\n\n"+
				"Or specify a custom config file:\n"+
				"  ingestd <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  ingestd init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML
// format, restricting file permissions since blob credentials may be
// present.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("INGESTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// durationDecodeHook converts strings to time.Duration, so config files
// can use human-readable durations like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path, honoring
// XDG_CONFIG_HOME, falling back to ~/.config, or "." as a last resort.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ingestd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "ingestd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// init command).
func GetConfigDir() string {
	return getConfigDir()
}
