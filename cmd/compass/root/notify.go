package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/ui"
)

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Show overdue, due today, due tomorrow and unprocessed inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				n := svc.Notifications()
				out := cmd.OutOrStdout()
				if n.Total() == 0 {
					fmt.Fprintln(out, ui.Good.Render(ui.IconBell+" All clear"))
					return nil
				}
				if len(n.Overdue) > 0 {
					fmt.Fprintln(out, ui.Bad.Render(fmt.Sprintf("Overdue (%d)", len(n.Overdue))))
					printTasks(out, svc, n.Overdue)
				}
				if len(n.DueToday) > 0 {
					fmt.Fprintln(out, ui.Warn.Render(fmt.Sprintf("Due today (%d)", len(n.DueToday))))
					printTasks(out, svc, n.DueToday)
				}
				if len(n.DueTomorrow) > 0 {
					fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("Due tomorrow (%d)", len(n.DueTomorrow))))
					printTasks(out, svc, n.DueTomorrow)
				}
				if n.InboxPending > 0 {
					fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("%s %d task(s) waiting in the inbox", ui.IconInbox, n.InboxPending)))
				}
				return nil
			})
		},
	}
	return cmd
}
