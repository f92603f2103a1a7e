package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"compass/internal/ui"
)

func newPurgeCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "purge [id]",
		Short: "Permanently delete an archived task (or --all archived tasks)",
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) == 0 {
				return nil
			}
			if len(args) != 1 {
				return errors.New("id is required (or --all)")
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

			if all {
				n := 0
				for _, t := range svc.Archived() {
					ok, err := svc.Tasks().DeletePermanently(ctx, t.ID)
					if err != nil {
						return err
					}
					if ok {
						n++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d archived task(s)\n", ui.Bad.Render("Purged"), n)
				return nil
			}

			t, err := findTask(svc, args[0])
			if err != nil {
				return err
			}
			if !t.IsArchived {
				return fmt.Errorf("task %s is not archived; archive it first", ui.ShortID(t.ID))
			}
			if _, err := svc.Tasks().DeletePermanently(ctx, t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Bad.Render("Purged"), t.Title)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Purge every archived task")
	return cmd
}
