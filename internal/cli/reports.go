package cli

import (
	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/internal/store"
	"github.com/spf13/cobra"
)

// reportsCmd lists generated report artifacts
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List generated report artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewLoader(globalFlags.Config).Load()
		if err != nil {
			return err
		}

		names, err := store.NewReportStore(cfg.Storage.ReportsDir).List()
		if err != nil {
			return err
		}

		if len(names) == 0 {
			cmd.Println("No reports generated yet.")
			return nil
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(reportsCmd)
}
