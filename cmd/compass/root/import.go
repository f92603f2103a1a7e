package root

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"compass/internal/engine"
	"compass/internal/ui"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Restore slots from an export document",
		Long:  "Import overwrites every slot present in the document. Slots absent from it are left alone.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}
			var snap engine.Snapshot
			if err := json.NewDecoder(r).Decode(&snap); err != nil {
				return fmt.Errorf("decode export: %w", err)
			}

			return withService(func(ctx context.Context, svc *engine.Service) error {
				if err := svc.Import(ctx, &snap); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d slot(s), %d task(s)\n", ui.Good.Render("Imported"), len(snap.Slots), len(svc.Tasks().List()))
				return nil
			})
		},
	}
	return cmd
}
