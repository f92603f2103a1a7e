package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var historyN int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, XP, recent XP history and badges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				out := cmd.OutOrStdout()
				l := svc.Ledger()
				xp := l.XP()
				p := engine.ProgressForXP(xp)

				fmt.Fprintln(out, ui.Heading(ui.IconBolt, "Progress"))
				fmt.Fprintln(out, ui.LabelValue("Level", l.Level()))
				fmt.Fprintln(out, ui.LabelValue("XP", fmt.Sprintf("%d %s %d/%d", xp, ui.ProgressBar(p.Current, p.Required, 20), p.Current, p.Required)))
				fmt.Fprintln(out)

				fmt.Fprintln(out, ui.H2.Render("Recent XP"))
				history := l.History()
				if len(history) == 0 {
					fmt.Fprintln(out, ui.Muted.Render("  nothing yet; complete a task with `compass done <id>`"))
				}
				for i, e := range history {
					if i >= historyN {
						break
					}
					fmt.Fprintf(out, "  %s %s %s\n", ui.Gold.Render(fmt.Sprintf("+%d", e.Amount)), e.Source, ui.Muted.Render(e.Timestamp.Format("2006-01-02 15:04")))
				}
				fmt.Fprintln(out)

				achievements := svc.Achievements()
				earned := 0
				for _, a := range achievements {
					if a.Earned {
						earned++
					}
				}
				fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("%s Badges (%d/%d)", ui.IconTrophy, earned, len(achievements))))
				for _, a := range achievements {
					if a.Earned {
						fmt.Fprintf(out, "  %s %s %s\n", a.Icon, ui.Good.Render(a.Name), ui.Muted.Render(a.Description))
					} else {
						fmt.Fprintf(out, "  %s %s\n", ui.Muted.Render("·"), ui.Muted.Render(a.Name+": "+a.Description))
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&historyN, "history", "n", 10, "How many XP entries to show")
	return cmd
}
