package root

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/ui"
)

func newAddCmd() *cobra.Command {
	var desc string
	var due string
	var ctxName string
	var mission string
	var quadrant string
	var subtasks []string

	cmd := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a task (inbox unless a quadrant is given)",
		Long: `Add a task. The text may carry inline tokens:

  @home            context
  due:2024-03-15   due date (or due:today, due:tomorrow)
  #q1 .. #q4       quadrant; without one the task lands in the inbox

Flags override inline tokens.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("text is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			now := svc.Now()
			in := engine.ParseQuickAdd(strings.Join(args, " "), engine.DayKey(now), engine.DayKey(now.AddDate(0, 0, 1)))
			in.Description = desc
			in.Subtasks = subtasks
			if due != "" {
				in.DueDate = due
			}
			if ctxName != "" {
				in.Context = ctxName
			}
			if quadrant != "" {
				p, err := engine.ParseTarget(quadrant)
				if err != nil {
					return err
				}
				if u, i, ok := p.Flags(); ok {
					in.Urgent, in.Important = engine.Ptr(u), engine.Ptr(i)
				} else {
					in.Urgent, in.Important = nil, nil
				}
			}
			if mission != "" {
				id, err := svc.Missions().FindID(mission)
				if err != nil {
					return err
				}
				if id == "" {
					return fmt.Errorf("mission %q not found", mission)
				}
				in.MissionID = id
			}

			t, err := svc.CreateTask(ctx, in)
			if err != nil {
				return err
			}
			where := engine.Place(*t, svc.Now()).Label()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconPlus+" Added"), taskLine(svc, *t), ui.Muted.Render("→ "+where))
			return nil
		},
	}

	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&ctxName, "context", "c", "", "Context (e.g. @home)")
	cmd.Flags().StringVarP(&mission, "mission", "m", "", "Mission, vision or value id to align with")
	cmd.Flags().StringVarP(&quadrant, "quadrant", "q", "", "Quadrant (q1|q2|q3|q4) or inbox")
	cmd.Flags().StringArrayVarP(&subtasks, "subtask", "s", nil, "Checklist item (repeatable)")
	return cmd
}
