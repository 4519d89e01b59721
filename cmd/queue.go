package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"roast-pipeline/internal/ledger"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show the pending upload queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := ledger.Open(cfg.Ledger.DBPath)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}

		entries, err := store.Pending()
		if err != nil {
			return fmt.Errorf("reading queue: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("Queue is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTREAMER\tFILE\tQUEUED AT")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
				e.ID, e.StreamerName, e.FilePath, e.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
}
