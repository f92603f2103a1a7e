package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"compass/internal/ui"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "archive <id>",
		Aliases: []string{"rm"},
		Short:   "Archive a task (it stays restorable)",
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
			archived, err := svc.Tasks().DeleteTask(ctx, t.ID)
			if err != nil {
				return err
			}
			if archived == nil {
				return fmt.Errorf("task %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warn.Render(ui.IconArchive+" Archived"), taskLine(svc, *archived))
			return nil
		},
	}
	return cmd
}
