package root

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/storage"
	"compass/internal/ui"
)

func newMissionCmd() *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "mission",
		Short: "Manage missions (a tree of purpose statements)",
	}

	add := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a mission, optionally under --parent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				text, err := engine.NormalizeTitle(strings.Join(args, " "))
				if err != nil {
					return err
				}
				var parentID *string
				if parent != "" {
					m, err := findMission(svc, parent)
					if err != nil {
						return err
					}
					parentID = &m.ID
				}
				m, err := svc.Missions().AddMission(ctx, text, parentID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconPlus+" Mission"), ui.Muted.Render(ui.ShortID(m.ID)), m.Text)
				return nil
			})
		},
	}
	add.Flags().StringVarP(&parent, "parent", "p", "", "Parent mission id")

	edit := &cobra.Command{
		Use:   "edit <id> <text...>",
		Short: "Rewrite a mission; the old text is kept in its history",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				m, err := findMission(svc, args[0])
				if err != nil {
					return err
				}
				text, err := engine.NormalizeTitle(strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				updated, err := svc.Missions().UpdateMission(ctx, m.ID, text)
				if err != nil {
					return err
				}
				if updated == nil {
					return fmt.Errorf("mission %q not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render("Updated"), updated.Text, ui.Muted.Render(fmt.Sprintf("(%d version(s))", len(updated.Versions))))
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a mission (sub-missions follow missions.delete_policy)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				m, err := findMission(svc, args[0])
				if err != nil {
					return err
				}
				removed, err := svc.DeleteMission(ctx, m.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d mission(s)\n", ui.Warn.Render("Deleted"), len(removed))
				return nil
			})
		},
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "Show the mission tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ui.Heading(ui.IconCompass, "Missions"))
				roots := svc.Missions().RootMissions()
				if len(roots) == 0 {
					fmt.Fprintln(out, ui.Muted.Render("  (none)"))
				}
				for _, m := range roots {
					printMissionTree(out, svc.Missions(), m, 1)
				}
				if orphans := svc.Missions().OrphanedMissions(); len(orphans) > 0 {
					fmt.Fprintln(out, ui.Warn.Render("Orphaned"))
					for _, m := range orphans {
						printMissionTree(out, svc.Missions(), m, 1)
					}
				}
				return nil
			})
		},
	}

	history := &cobra.Command{
		Use:   "history <id>",
		Short: "Show previous wordings of a mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				m, err := findMission(svc, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ui.LabelValue("Now", m.Text))
				if len(m.Versions) == 0 {
					fmt.Fprintln(out, ui.Muted.Render("  no earlier versions"))
				}
				for i := len(m.Versions) - 1; i >= 0; i-- {
					v := m.Versions[i]
					fmt.Fprintf(out, "  %s %s\n", ui.Muted.Render(v.Timestamp.Format("2006-01-02 15:04")), v.Text)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(add, edit, rm, ls, history)
	return cmd
}

func withService(fn func(ctx context.Context, svc *engine.Service) error) error {
	ctx := context.Background()
	svc, cleanup, err := openService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, svc)
}

func findMission(svc *engine.Service, ref string) (*storage.Mission, error) {
	id, err := svc.Missions().FindID(ref)
	if err != nil {
		return nil, err
	}
	m := svc.Missions().Mission(id)
	if m == nil {
		return nil, fmt.Errorf("mission %q not found", ref)
	}
	return m, nil
}

func printMissionTree(w io.Writer, store *engine.MissionStore, m storage.Mission, depth int) {
	fmt.Fprintf(w, "%s- %s %s\n", strings.Repeat("  ", depth), ui.Muted.Render(ui.ShortID(m.ID)), m.Text)
	for _, c := range store.SubMissions(m.ID) {
		printMissionTree(w, store, c, depth+1)
	}
}
