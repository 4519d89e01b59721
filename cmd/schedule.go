package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"roast-pipeline/internal/ledger"
	"roast-pipeline/internal/producer"
	"roast-pipeline/internal/publish"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily upload and discovery schedule",
	Long: `Schedule starts the long-running daemon: uploads drain from the queue
at the configured times each day and a nightly discovery run refills it.
Stops cleanly on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := ledger.Open(cfg.Ledger.DBPath)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}

		p := producer.New(cfg, store)
		uploader := publish.NewUploader(cfg)
		sched := publish.NewScheduler(cfg, store, uploader, func(ctx context.Context) error {
			return p.RunDiscovery(ctx, false)
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := sched.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
