package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartcampus/newsdigest/internal/news"
)

func newAskCmd() *cobra.Command {
	var days int
	var identity string
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from recent daily briefs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audience := news.Audience(identity)
			if !audience.Valid() {
				return fmt.Errorf("identity must be student or teacher, got %q", identity)
			}
			svc, err := buildServices()
			if err != nil {
				return err
			}
			defer func() {
				_ = svc.logger.Sync()
			}()

			answer, err := svc.qa.Ask(cmd.Context(), strings.Join(args, " "), days, audience)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			return printJSON(cmd, answer)
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "history window in days")
	cmd.Flags().StringVar(&identity, "identity", "student", "audience: student or teacher")
	return cmd
}
