package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"roast-pipeline/internal/ledger"
	"roast-pipeline/internal/producer"
)

var discoverDryRun bool

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find eligible clips, produce them, and fill the upload queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := ledger.Open(cfg.Ledger.DBPath)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}

		p := producer.New(cfg, store)
		return p.RunDiscovery(cmd.Context(), discoverDryRun)
	},
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverDryRun, "dry-run", false, "List candidates without producing anything")
	rootCmd.AddCommand(discoverCmd)
}
