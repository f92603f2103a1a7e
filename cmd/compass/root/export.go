package root

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"compass/internal/engine"
)

func newExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump every stored slot as one JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *engine.Service) error {
				snap, err := svc.Export(ctx)
				if err != nil {
					return err
				}
				var w io.Writer = cmd.OutOrStdout()
				if outPath != "" && outPath != "-" {
					f, err := os.Create(outPath)
					if err != nil {
						return fmt.Errorf("create %s: %w", outPath, err)
					}
					defer f.Close()
					w = f
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write to file instead of stdout")
	return cmd
}
