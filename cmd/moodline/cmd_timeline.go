package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/moodline/internal/store"
	"github.com/user/moodline/internal/timeline"
)

func init() {
	rootCmd.AddCommand(timelineCmd)
}

var timelineCmd = &cobra.Command{
	Use:   "timeline [date]",
	Short: "Print the emotion timeline for a day (default today)",
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
		if len(entries) == 0 {
			fmt.Fprintf(os.Stdout, "No emotion data for %s.\n", day.Format("2006-01-02"))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tPEAK\tTOP EMOTIONS")
		for _, e := range entries {
			peak := "-"
			if e.PeakIntensity != nil {
				peak = fmt.Sprintf("%.1f%%", *e.PeakIntensity*100)
			}
			names := make([]string, 0, len(e.TopEmotions))
			for _, em := range e.TopEmotions {
				names = append(names, fmt.Sprintf("%s %.1f%%", em.Name, em.Score*100))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.DisplayTime, peak, strings.Join(names, ", "))
		}
		return w.Flush()
	},
}
