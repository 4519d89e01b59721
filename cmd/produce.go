package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"roast-pipeline/internal/ledger"
	"roast-pipeline/internal/producer"
)

var (
	produceInput    string
	produceStreamer string
	producePersona  string
	produceEnqueue  bool
)

var produceCmd = &cobra.Command{
	Use:   "produce",
	Short: "Run the full pipeline on local video files",
	Long: `Produce takes an already-downloaded clip, generates the roast script
and voice-over, composes the timeline, and renders the final short.
A directory input runs every video file in it through the pipeline.
With --enqueue each result is added to the upload queue.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := os.Stat(produceInput)
		if err != nil {
			return fmt.Errorf("input does not exist: %s", produceInput)
		}

		inputs := []string{produceInput}
		if info.IsDir() {
			inputs, err = producer.ListVideos(produceInput)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no videos found in %s", produceInput)
			}
		}

		store, err := ledger.Open(cfg.Ledger.DBPath)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}
		p := producer.New(cfg, store)

		produced := 0
		for _, in := range inputs {
			outPath, err := p.ProduceLocal(cmd.Context(), in, produceStreamer, producePersona)
			if err != nil {
				if !info.IsDir() {
					return err
				}
				log.Printf("[cmd] Warning: %s failed: %v", in, err)
				continue
			}
			if produceEnqueue {
				name := produceStreamer
				if name == "" {
					name = producer.StreamerName(in)
				}
				if _, err := store.Enqueue(outPath, name); err != nil {
					return fmt.Errorf("enqueueing output: %w", err)
				}
				log.Printf("[cmd] Queued for upload: %s", outPath)
			}
			produced++
		}

		if info.IsDir() {
			log.Printf("[cmd] Batch complete: %d/%d produced", produced, len(inputs))
		}
		return nil
	},
}

func init() {
	produceCmd.Flags().StringVarP(&produceInput, "input", "i", "", "Input video file or directory (required)")
	produceCmd.Flags().StringVarP(&produceStreamer, "streamer", "s", "", "Streamer display name (default: derived from file name)")
	produceCmd.Flags().StringVarP(&producePersona, "persona", "p", "", "Voice persona (WARLORD or ZESTY)")
	produceCmd.Flags().BoolVar(&produceEnqueue, "enqueue", false, "Add rendered shorts to the upload queue")
	_ = produceCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(produceCmd)
}
