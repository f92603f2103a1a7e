package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"compass/internal/ui"
)

func newDoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between todo and done",
		Long: `Toggle a task. Completing it grants XP; reopening it keeps the XP already
earned.`,
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
			res, err := svc.ToggleTaskStatus(ctx, t.ID)
			if res == nil {
				if err != nil {
					return err
				}
				return fmt.Errorf("task %q not found", args[0])
			}

			// The status flip is saved even when err reports a ledger failure.
			out := cmd.OutOrStdout()
			if !res.Completed {
				fmt.Fprintf(out, "%s %s\n", ui.Warn.Render(ui.IconUndo+" Reopened"), taskLine(svc, res.Task))
				return err
			}
			fmt.Fprintf(out, "%s %s %s\n", ui.Good.Render(ui.IconDone+" Done"), taskLine(svc, res.Task), ui.Gold.Render(fmt.Sprintf("+%d XP", res.XPAwarded)))
			if res.LevelUp {
				fmt.Fprintf(out, "%s %s\n", ui.BadgeLevelUp, ui.LabelValue("Level", fmt.Sprintf("%d → %d", res.LevelBefore, res.LevelAfter)))
			}
			return err
		},
	}
	return cmd
}
