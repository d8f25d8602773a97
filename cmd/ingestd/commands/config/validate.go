package config

import (
	"fmt"

	"github.com/marmos91/ingestd/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the ingestd configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  ingestd config validate

  # Validate specific config file
  ingestd config validate --config /etc/ingestd/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		warnings = append(warnings, "telemetry enabled but no endpoint configured")
	}
	if cfg.Watcher.MinFileAge <= 0 {
		warnings = append(warnings, "watcher min_file_age is zero - files may be ingested mid-write")
	}

	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Incoming root:   %s\n", cfg.NFS.IncomingRoot)
	fmt.Printf("  Processing root: %s\n", cfg.NFS.ProcessingRoot)
	fmt.Printf("  Staging root:    %s\n", cfg.Staging.Root)
	fmt.Printf("  Blob container:  %s\n", cfg.Blob.Container)
	fmt.Printf("  Worker count:    %d\n", cfg.Worker.Count)
	fmt.Printf("  API port:        %d\n", cfg.Server.API.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
