package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/ui"
)

func newUnarchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unarchive <id>",
		Short: "Restore an archived task to the view it came from",
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
			restored, err := svc.Tasks().UnarchiveTask(ctx, t.ID)
			if err != nil {
				return err
			}
			if restored == nil {
				return fmt.Errorf("task %q not found", args[0])
			}
			where := engine.Place(*restored, svc.Now()).Label()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconUndo+" Restored"), taskLine(svc, *restored), ui.Muted.Render("→ "+where))
			return nil
		},
	}
	return cmd
}
