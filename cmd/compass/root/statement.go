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

// statementOps adapts the vision or value half of the mission store.
type statementOps struct {
	noun   string
	list   func(*engine.MissionStore) []storage.Statement
	add    func(context.Context, *engine.MissionStore, string) (*storage.Statement, error)
	update func(context.Context, *engine.MissionStore, string, string) (*storage.Statement, error)
	remove func(context.Context, *engine.MissionStore, string) (bool, error)
}

func newVisionCmd() *cobra.Command {
	return newStatementCmd(statementOps{
		noun: "vision",
		list: (*engine.MissionStore).Visions,
		add: func(ctx context.Context, s *engine.MissionStore, text string) (*storage.Statement, error) {
			return s.AddVision(ctx, text)
		},
		update: func(ctx context.Context, s *engine.MissionStore, id, text string) (*storage.Statement, error) {
			return s.UpdateVision(ctx, id, text)
		},
		remove: func(ctx context.Context, s *engine.MissionStore, id string) (bool, error) {
			return s.DeleteVision(ctx, id)
		},
	})
}

func newValueCmd() *cobra.Command {
	return newStatementCmd(statementOps{
		noun: "value",
		list: (*engine.MissionStore).Values,
		add: func(ctx context.Context, s *engine.MissionStore, text string) (*storage.Statement, error) {
			return s.AddValue(ctx, text)
		},
		update: func(ctx context.Context, s *engine.MissionStore, id, text string) (*storage.Statement, error) {
			return s.UpdateValue(ctx, id, text)
		},
		remove: func(ctx context.Context, s *engine.MissionStore, id string) (bool, error) {
			return s.DeleteValue(ctx, id)
		},
	})
}

func newStatementCmd(ops statementOps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   ops.noun,
		Short: fmt.Sprintf("Manage %ss", ops.noun),
	}

	find := func(svc *engine.Service, ref string) (string, error) {
		for _, st := range ops.list(svc.Missions()) {
			if st.ID == ref || strings.HasPrefix(st.ID, ref) {
				return st.ID, nil
			}
		}
		return "", fmt.Errorf("%s %q not found", ops.noun, ref)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <text...>",
			Short: "Add a " + ops.noun,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(func(ctx context.Context, svc *engine.Service) error {
					text, err := engine.NormalizeTitle(strings.Join(args, " "))
					if err != nil {
						return err
					}
					st, err := ops.add(ctx, svc.Missions(), text)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconPlus+" "+ops.noun), ui.Muted.Render(ui.ShortID(st.ID)), st.Text)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "edit <id> <text...>",
			Short: "Rewrite a " + ops.noun,
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(func(ctx context.Context, svc *engine.Service) error {
					id, err := find(svc, args[0])
					if err != nil {
						return err
					}
					text, err := engine.NormalizeTitle(strings.Join(args[1:], " "))
					if err != nil {
						return err
					}
					st, err := ops.update(ctx, svc.Missions(), id, text)
					if err != nil {
						return err
					}
					if st == nil {
						return fmt.Errorf("%s %q not found", ops.noun, args[0])
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render("Updated"), st.Text)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete a " + ops.noun,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(func(ctx context.Context, svc *engine.Service) error {
					id, err := find(svc, args[0])
					if err != nil {
						return err
					}
					if _, err := ops.remove(ctx, svc.Missions(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warn.Render("Deleted"), ops.noun)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "ls",
			Short: "List " + ops.noun + "s",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(func(ctx context.Context, svc *engine.Service) error {
					list := ops.list(svc.Missions())
					fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconCompass, strings.ToUpper(ops.noun[:1])+ops.noun[1:]+"s"))
					if len(list) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("  (none)"))
					}
					for _, st := range list {
						fmt.Fprintf(cmd.OutOrStdout(), "  - %s %s\n", ui.Muted.Render(ui.ShortID(st.ID)), st.Text)
					}
					return nil
				})
			},
		},
	)
	return cmd
}
