package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"compass/internal/ui"
)

const Version = "0.3.0"

// flags shared by every command
var global struct {
	dbPath   string
	logLevel string
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "compass",
		Short:         "Compass: GTD inbox + Eisenhower matrix + missions",
		Long:          "Compass is a local-first task manager: capture into an inbox, sort into the urgent/important matrix, and align work with your missions, visions and values.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&global.dbPath, "db", "", "Database path (overrides config and $COMPASS_DB)")
	cmd.PersistentFlags().StringVar(&global.logLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(
		newAddCmd(),
		newCaptureCmd(),
		newListCmd(),
		newMoveCmd(),
		newDoneCmd(),
		newEditCmd(),
		newArchiveCmd(),
		newUnarchiveCmd(),
		newPurgeCmd(),
		newSubtaskCmd(),
		newMissionCmd(),
		newVisionCmd(),
		newValueCmd(),
		newContextCmd(),
		newCalendarCmd(),
		newNotifyCmd(),
		newStatsCmd(),
		newStatusCmd(),
		newBoardCmd(),
		newSyncCmd(),
		newServeCmd(),
		newExportCmd(),
		newImportCmd(),
		newConfigCmd(),
	)
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
