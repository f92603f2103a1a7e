package root

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"compass/internal/config"
	"compass/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config to ~/.compass/config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GlobalPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render("Wrote")+" "+path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.LabelValue("db_path", cfg.DBPath))
			fmt.Fprintln(out, ui.LabelValue("log.level", cfg.Log.Level))
			fmt.Fprintln(out, ui.LabelValue("missions.delete_policy", cfg.Missions.DeletePolicy))
			fmt.Fprintln(out, ui.LabelValue("calendar.name", cfg.Calendar.Name))
			fmt.Fprintln(out, ui.LabelValue("calendar.sync_days", cfg.Calendar.SyncDays))
			fmt.Fprintln(out, ui.LabelValue("server.addr", cfg.Server.Addr))
			return nil
		},
	}

	cmd.AddCommand(initCmd, show)
	return cmd
}
