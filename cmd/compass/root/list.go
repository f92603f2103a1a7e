package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/ui"
)

func newListCmd() *cobra.Command {
	var ctxName string

	cmd := &cobra.Command{
		Use:       "list [inbox|matrix|archive|all]",
		Short:     "List tasks by view (default: inbox and matrix)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"inbox", "matrix", "archive", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if ctxName != "" {
				name, err := engine.NormalizeContextName(ctxName)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.Heading(ui.IconTarget, name))
				printTasks(out, svc, engine.ByContext(svc.Tasks().List(), name))
				return nil
			}

			view := "default"
			if len(args) == 1 {
				view = args[0]
			}
			switch view {
			case "inbox":
				printInbox(cmd, svc)
			case "matrix":
				printMatrix(cmd, svc)
			case "archive", "archived":
				fmt.Fprintln(out, ui.Heading(ui.IconArchive, "Archive"))
				printTasks(out, svc, svc.Archived())
			case "all":
				fmt.Fprintln(out, ui.Heading(ui.IconCompass, "All tasks"))
				printTasks(out, svc, svc.Tasks().List())
			case "default":
				printInbox(cmd, svc)
				fmt.Fprintln(out)
				printMatrix(cmd, svc)
			default:
				return fmt.Errorf("unknown view %q (want inbox, matrix, archive or all)", view)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&ctxName, "context", "c", "", "Only open tasks in this context")
	return cmd
}

func printInbox(cmd *cobra.Command, svc *engine.Service) {
	inbox := svc.Inbox()
	fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconInbox, fmt.Sprintf("Inbox (%d)", len(inbox))))
	printTasks(cmd.OutOrStdout(), svc, inbox)
}

func printMatrix(cmd *cobra.Command, svc *engine.Service) {
	m := svc.Matrix()
	for i, q := range engine.Quadrants {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		bucket := m.Bucket(q)
		title := fmt.Sprintf("%s %s (%d)", q.Label(), "["+string(q)+"]", len(bucket))
		fmt.Fprintln(cmd.OutOrStdout(), ui.QuadrantStyle(string(q)).Render(title))
		printTasks(cmd.OutOrStdout(), svc, bucket)
	}
}
