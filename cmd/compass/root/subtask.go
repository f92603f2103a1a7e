package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/storage"
	"compass/internal/ui"
)

func newSubtaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Manage a task's checklist",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <task-id> <text...>",
			Short: "Add a checklist item",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				text, err := engine.NormalizeTitle(strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return editSubtasks(cmd, args[0], func(ctx context.Context, svc *engine.Service, t *storage.Task) (*storage.Task, error) {
					return svc.Tasks().AddSubtask(ctx, t.ID, text)
				})
			},
		},
		&cobra.Command{
			Use:   "done <task-id> <subtask-id>",
			Short: "Toggle a checklist item",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editSubtasks(cmd, args[0], func(ctx context.Context, svc *engine.Service, t *storage.Task) (*storage.Task, error) {
					id, err := findSubtask(t, args[1])
					if err != nil {
						return nil, err
					}
					return svc.Tasks().ToggleSubtask(ctx, t.ID, id)
				})
			},
		},
		&cobra.Command{
			Use:   "rm <task-id> <subtask-id>",
			Short: "Remove a checklist item",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editSubtasks(cmd, args[0], func(ctx context.Context, svc *engine.Service, t *storage.Task) (*storage.Task, error) {
					id, err := findSubtask(t, args[1])
					if err != nil {
						return nil, err
					}
					return svc.Tasks().RemoveSubtask(ctx, t.ID, id)
				})
			},
		},
	)
	return cmd
}

func editSubtasks(cmd *cobra.Command, ref string, fn func(context.Context, *engine.Service, *storage.Task) (*storage.Task, error)) error {
	ctx := context.Background()
	svc, cleanup, err := openService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := findTask(svc, ref)
	if err != nil {
		return err
	}
	updated, err := fn(ctx, svc, t)
	if err != nil {
		return err
	}
	if updated == nil {
		return fmt.Errorf("task %q not found", ref)
	}
	printTaskDetail(cmd.OutOrStdout(), svc, *updated)
	return nil
}

func findSubtask(t *storage.Task, ref string) (string, error) {
	for _, st := range t.Subtasks {
		if st.ID == ref || strings.HasPrefix(st.ID, ref) {
			return st.ID, nil
		}
	}
	return "", fmt.Errorf("subtask %q not found on %s", ref, ui.ShortID(t.ID))
}
