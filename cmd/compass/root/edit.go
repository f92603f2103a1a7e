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

func newEditCmd() *cobra.Command {
	var title, desc, due, ctxName, mission string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit task fields (pass \"\" to clear an optional field)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("id is required")
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

			t, err := findTask(svc, args[0])
			if err != nil {
				return err
			}

			var patch engine.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				v, err := engine.NormalizeTitle(title)
				if err != nil {
					return err
				}
				patch.Title = &v
			}
			if flags.Changed("desc") {
				patch.Description = engine.Ptr(strings.TrimSpace(desc))
			}
			if flags.Changed("due") {
				v, err := engine.NormalizeDueDate(due)
				if err != nil {
					return err
				}
				patch.DueDate = &v
			}
			if flags.Changed("context") {
				v := ""
				if strings.TrimSpace(ctxName) != "" {
					if v, err = engine.NormalizeContextName(ctxName); err != nil {
						return err
					}
				}
				patch.Context = &v
			}
			if flags.Changed("mission") {
				v := ""
				if strings.TrimSpace(mission) != "" {
					if v, err = svc.Missions().FindID(mission); err != nil {
						return err
					}
					if v == "" {
						return fmt.Errorf("mission %q not found", mission)
					}
				}
				patch.MissionID = &v
			}

			updated, err := svc.Tasks().UpdateTask(ctx, t.ID, patch)
			if err != nil {
				return err
			}
			if updated == nil {
				return fmt.Errorf("task %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ", ui.Good.Render("Updated"))
			printTaskDetail(cmd.OutOrStdout(), svc, *updated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&ctxName, "context", "c", "", "Context")
	cmd.Flags().StringVarP(&mission, "mission", "m", "", "Mission, vision or value id")
	return cmd
}
