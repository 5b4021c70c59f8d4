package cli

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// GlobalFlags contains global flags available for all commands
type GlobalFlags struct {
	Config  string
	Verbose bool
}

var globalFlags GlobalFlags

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "fleetlens",
	Short: "FleetLens - vehicle telemetry odometer reporting",
	Long: `FleetLens is a single-tenant web service for fleet operators.

It stores vendor API credentials, proxies the vendor's token-exchange
chain, lists the vehicles visible to the configured credentials, and
generates CSV reports of per-vehicle odometer readings over a date range.

Use "fleetlens [command] --help" for more information about a command.`,
}

// InitRoot initializes the root command with global flags
func InitRoot() {
	configPath := os.Getenv("FLEETLENS_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	RootCmd.PersistentFlags().StringVar(&globalFlags.Config, "config", configPath, "Path to configuration file")
	RootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose output")

	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of FleetLens",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("FleetLens Version: %s\n", version)
		cmd.Printf("Go Version: %s\n", runtime.Version())
		cmd.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

const version = "0.1.0"
