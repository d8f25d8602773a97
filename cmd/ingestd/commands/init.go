package commands

import (
	"fmt"

	"github.com/marmos91/ingestd/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample ingestd configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/ingestd/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  ingestd init

  # Initialize with custom path
  ingestd init --config /etc/ingestd/config.yaml

  # Force overwrite existing config
  ingestd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to set your NFS mounts and blob credentials")
	fmt.Println("  2. Start the ingest engine with: ingestd start")
	fmt.Printf("  3. Or specify a custom config: ingestd start --config %s\n", configPath)

	return nil
}
