package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"linketron/internal/analytics"
	"linketron/internal/storage"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize one day of the activity journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			day := time.Now().UTC()
			if dateFlag != "" {
				day, err = time.Parse("2006-01-02", dateFlag)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", dateFlag)
				}
			}

			journal, err := storage.NewFileRecorder(cfg.JournalFilePath)
			if err != nil {
				return err
			}
			events, err := journal.Load()
			if err != nil {
				return err
			}
			stats := analytics.AnalyzeDailyLogs(events, day)

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := stats.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, data)
				return nil
			}
			fmt.Fprintln(out, stats.GenerateReportSummary())
			if users := stats.Users(); len(users) > 0 {
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{
						strconv.FormatInt(u.UserID, 10),
						strconv.Itoa(u.Research),
						strconv.Itoa(u.Drafts),
						strconv.Itoa(u.Publishes),
						strconv.Itoa(u.Failures),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"User", "Research", "Drafts", "Published", "Failures"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
				))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Day to report (YYYY-MM-DD, UTC); defaults to today")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw statistics as JSON")
	return cmd
}
