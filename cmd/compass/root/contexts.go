package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/storage"
	"compass/internal/ui"
)

func newContextCmd() *cobra.Command {
	var icon string

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage GTD contexts (@home, @work, ...)",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				c, err := svc.Contexts().Add(ctx, args[0], icon)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconPlus+" Context"), contextLabel(*c))
				return nil
			})
		},
	}
	add.Flags().StringVar(&icon, "icon", "", "Emoji shown next to the name")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "rename <name|id> <new-name>",
			Short: "Rename a context (existing tasks keep the old name)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(func(ctx context.Context, svc *engine.Service) error {
					c := svc.Contexts().Find(args[0])
					if c == nil {
						return fmt.Errorf("context %q not found", args[0])
					}
					renamed, err := svc.Contexts().Rename(ctx, c.ID, args[1])
					if err != nil {
						return err
					}
					if renamed == nil {
						return fmt.Errorf("context %q not found", args[0])
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render("Renamed"), contextLabel(*renamed))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm <name|id>",
			Short: "Delete a context",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(func(ctx context.Context, svc *engine.Service) error {
					c := svc.Contexts().Find(args[0])
					if c == nil {
						return fmt.Errorf("context %q not found", args[0])
					}
					if _, err := svc.Contexts().Delete(ctx, c.ID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warn.Render("Deleted"), c.Name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "ls",
			Short: "List contexts with their open task counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(func(ctx context.Context, svc *engine.Service) error {
					tasks := svc.Tasks().List()
					for _, c := range svc.Contexts().List() {
						n := len(engine.ByContext(tasks, c.Name))
						fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", contextLabel(c), ui.Muted.Render(fmt.Sprintf("(%d open)", n)))
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func contextLabel(c storage.Context) string {
	if c.Icon == "" {
		return c.Name
	}
	return c.Icon + " " + c.Name
}
