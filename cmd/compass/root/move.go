package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/ui"
)

func newMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <id> <inbox|q1|q2|q3|q4>",
		Short: "Move a task into the inbox or a quadrant",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("id and target are required")
			}
			_, err := engine.ParseTarget(args[1])
			return err
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
			target, _ := engine.ParseTarget(args[1])
			moved, err := svc.Tasks().Reclassify(ctx, t.ID, target)
			if err != nil {
				return err
			}
			if moved == nil {
				return fmt.Errorf("task %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render("Moved"), taskLine(svc, *moved), ui.Muted.Render("→ "+target.Label()))
			return nil
		},
	}
	return cmd
}
