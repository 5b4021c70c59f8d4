package cli

import (
	"encoding/json"

	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/internal/store"
	"github.com/spf13/cobra"
)

// configCmd inspects and clears the stored credential record
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the stored vendor credential record",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored credential record",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := openConfigStore()
		if err != nil {
			return err
		}

		record := configs.Load()
		if record == nil {
			cmd.Println("No API configuration saved.")
			return nil
		}

		// The API key stays on disk only; never echo it.
		record.APIKey = "********"
		out, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	},
}

var configClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored credential record",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := openConfigStore()
		if err != nil {
			return err
		}

		if err := configs.Delete(); err != nil {
			return err
		}
		cmd.Println("API configuration deleted.")
		return nil
	},
}

func openConfigStore() (*store.ConfigStore, error) {
	cfg, err := config.NewLoader(globalFlags.Config).Load()
	if err != nil {
		return nil, err
	}
	return store.NewConfigStore(cfg.Storage.ConfigPath), nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configClearCmd)
	RootCmd.AddCommand(configCmd)
}
