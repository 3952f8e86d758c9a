package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newDailyCmd() *cobra.Command {
	var targetDate string
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Run the daily job for one date and print the report",
		Long: `Runs the full daily pipeline: load the cached announcements for the
target date or crawl them, generate the student and teacher digests, and
persist the report. The default target is yesterday.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}
			defer func() {
				_ = svc.logger.Sync()
			}()

			result, err := svc.daily.Run(cmd.Context(), targetDate)
			if err != nil {
				return fmt.Errorf("daily job: %w", err)
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&targetDate, "date", "", "target date (YYYY-MM-DD, MM-DD, or \"today\"; default yesterday)")
	return cmd
}

func newWeeklyCmd() *cobra.Command {
	var endDate string
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Aggregate the seven-day window ending at a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}
			defer func() {
				_ = svc.logger.Sync()
			}()

			report, err := svc.daily.Weekly(cmd.Context(), endDate)
			if err != nil {
				return fmt.Errorf("weekly aggregation: %w", err)
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().StringVar(&endDate, "end", "", "inclusive window end (YYYY-MM-DD; default yesterday)")
	return cmd
}

func printJSON(cmd *cobra.Command, payload any) error {
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	cmd.Println(string(out))
	return nil
}
