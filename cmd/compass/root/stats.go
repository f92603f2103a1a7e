package root

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/ui"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				s := svc.Stats()
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ui.Heading(ui.IconTarget, "Stats"))
				fmt.Fprintln(out, ui.LabelValue("Open", s.Open))
				fmt.Fprintln(out, ui.LabelValue("Done", fmt.Sprintf("%d (%d this week)", s.Done, s.DoneLast7Days)))
				fmt.Fprintln(out, ui.LabelValue("Completion", fmt.Sprintf("%.0f%%", s.CompletionRate*100)))
				fmt.Fprintln(out, ui.LabelValue("Inbox", s.Inbox))
				fmt.Fprintln(out, ui.LabelValue("Overdue", s.Overdue))
				fmt.Fprintln(out, ui.LabelValue("Archived", s.Archived))
				fmt.Fprintln(out)

				fmt.Fprintln(out, ui.H2.Render("Open by quadrant"))
				for _, q := range engine.Quadrants {
					fmt.Fprintf(out, "  %s %d\n", ui.QuadrantStyle(string(q)).Render(fmt.Sprintf("%-10s", q.Label())), s.ByQuadrant[q])
				}
				fmt.Fprintln(out)

				fmt.Fprintln(out, ui.H2.Render("Open by alignment"))
				ids := make([]string, 0, len(s.ByMission))
				for id := range s.ByMission {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					label := ui.Muted.Render(ui.ShortID(id) + " (unlinked)")
					if a, ok := svc.Missions().Resolve(id); ok {
						label = a.Text
					}
					fmt.Fprintf(out, "  %s %d\n", label, s.ByMission[id])
				}
				fmt.Fprintf(out, "  %s %d\n", ui.Muted.Render("(none)"), s.Unaligned)
				return nil
			})
		},
	}
	return cmd
}
