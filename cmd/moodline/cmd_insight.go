package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/moodline/internal/delivery"
	"github.com/user/moodline/internal/store"
	"github.com/user/moodline/internal/timeline"
)

var insightDeliver string

func init() {
	insightCmd.Flags().StringVar(&insightDeliver, "deliver", "", "delivery target (e.g. telegram:123456); prints to stdout when empty")
	rootCmd.AddCommand(insightCmd)
}

var insightCmd = &cobra.Command{
	Use:   "insight [date]",
	Short: "Generate an insight for a day's emotions (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		day, err := dayArg(args)
		if err != nil {
			return err
		}

		records := store.NewRecordStore(cfg.Records.ResultsDir)
		recs, err := records.ForDay(day)
		if err != nil {
			return fmt.Errorf("load records: %w", err)
		}
		entries := timeline.New(timelineOptions(cfg)).Assemble(recs, day)

		gen, err := newGenerator(cfg)
		if err != nil {
			return err
		}

		result := gen.Generate(cmd.Context(), entries)
		if result.Failed() {
			fmt.Fprintln(os.Stderr, result.Error)
			os.Exit(1)
		}

		if insightDeliver != "" {
			reg, err := newDeliveryRegistry(cfg)
			if err != nil {
				return err
			}
			if err := reg.Deliver(insightDeliver, result); err != nil {
				return fmt.Errorf("deliver insight: %w", err)
			}
			fmt.Fprintf(os.Stdout, "Insight delivered to %s.\n", insightDeliver)
			return nil
		}

		fmt.Fprintln(os.Stdout, delivery.Format(result))
		return nil
	},
}
