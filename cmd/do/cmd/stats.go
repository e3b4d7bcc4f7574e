package cmd

import (
	"fmt"

	"github.com/noteghar/noteghar/internal/app"
	"github.com/spf13/cobra"
)

func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the moderation dashboard numbers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				d, err := a.StatsService.ModeratorDashboard(cmd.Context(), systemActor)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "notes:    %d total, %d pending, %d approved, %d rejected\n",
					d.TotalNotes, d.PendingNotesCount, d.ApprovedNotes, d.RejectedNotes)
				fmt.Fprintf(out, "approval: %.1f%%\n", d.ApprovalRate)
				fmt.Fprintf(out, "stale:    %d pending past the review window\n", d.NeedsAttention)
				fmt.Fprintf(out, "reports:  %d total, %d pending, %d resolved, %d dismissed\n",
					d.TotalReports, d.PendingReportsCount, d.ResolvedReports, d.DismissedReports)

				for i, c := range d.TopContributors {
					fmt.Fprintf(out, "%d. %s (%d approved)\n", i+1, c.Username, c.ApprovedCount)
				}
				return nil
			})
		},
	}
}
