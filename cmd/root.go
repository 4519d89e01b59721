package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"roast-pipeline/config"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "roast-pipeline",
	Short: "Automated roast-clip factory for small streamers",
	Long: `roast-pipeline discovers clips from small live streamers, writes an
AI roast commentary over them, renders a 9:16 short, and publishes the
results to YouTube on a daily schedule.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			cfg = config.Default()
			if cmd.Flags().Changed("config") {
				return fmt.Errorf("failed to load config: %w", err)
			}
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml",
		"Path to the pipeline config file")
}
