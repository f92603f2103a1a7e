package root

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/ui"
)

func newCalendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar [YYYY-MM-DD|YYYY-MM]",
		Short: "Show tasks due on a day (default today) or across a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				out := cmd.OutOrStdout()
				arg := ""
				if len(args) == 1 {
					arg = args[0]
				}

				if month, err := time.ParseInLocation("2006-01", arg, time.Local); err == nil {
					days := svc.Month(month.Year(), month.Month())
					keys := make([]string, 0, len(days))
					for k, tasks := range days {
						if len(tasks) > 0 {
							keys = append(keys, k)
						}
					}
					sort.Strings(keys)
					fmt.Fprintln(out, ui.Heading(ui.IconCal, month.Format("January 2006")))
					if len(keys) == 0 {
						fmt.Fprintln(out, ui.Muted.Render("  nothing due"))
					}
					for _, k := range keys {
						fmt.Fprintln(out, ui.H2.Render(k))
						printTasks(out, svc, days[k])
					}
					return nil
				}

				day := svc.Now()
				if arg != "" {
					d, ok := engine.ParseDueDate(arg)
					if !ok {
						return fmt.Errorf("%q is neither YYYY-MM-DD nor YYYY-MM", arg)
					}
					day = d
				}
				fmt.Fprintln(out, ui.Heading(ui.IconCal, day.Format("Monday, 2006-01-02")))
				printTasks(out, svc, svc.CalendarDay(day))
				return nil
			})
		},
	}
	return cmd
}
