package root

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"compass/internal/ui"
)

func newCaptureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture [transcript-file]",
		Short: "Capture one inbox task per line from stdin or a transcript file",
		Long: `Capture reads text line by line, for example the output of a dictation
tool, and drops every non-empty line into the inbox.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open transcript: %w", err)
				}
				defer f.Close()
				in = f
			}

			tasks, err := svc.CaptureLines(ctx, in)
			for _, t := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconInbox), taskLine(svc, t))
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(fmt.Sprintf("%d captured", len(tasks))))
			return nil
		},
	}
	return cmd
}
