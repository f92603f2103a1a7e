package root

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"compass/internal/calendar"
	"compass/internal/config"
	"compass/internal/ui"
)

func newSyncCmd() *cobra.Command {
	var auth bool
	var days int
	var agenda bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push dated tasks to Google Calendar",
		Long: `Sync pushes every dated, non-archived task due within calendar.sync_days
to Google Calendar as a 09:00 event, and remembers the event id on the task.
Run with --auth once to authorize; credentials come from calendar.credentials_file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			credFile, err := config.ResolveFile(cfg.Calendar.CredentialsFile)
			if err != nil {
				return err
			}
			tokenFile, err := config.ResolveFile(cfg.Calendar.TokenFile)
			if err != nil {
				return err
			}
			oauthCfg, err := calendar.OAuthConfig(credFile)
			if err != nil {
				return err
			}

			if auth {
				if _, err := calendar.Authorize(ctx, oauthCfg, tokenFile, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render("Authorized.")+" "+ui.Muted.Render("token saved to "+tokenFile))
				return nil
			}

			client, err := calendar.Client(ctx, oauthCfg, tokenFile)
			if err != nil {
				return err
			}
			gcal, err := calendar.DialGoogle(ctx, client, cfg.Calendar.Name)
			if err != nil {
				return err
			}

			svc, cleanup, err := openServiceWith(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			horizon := cfg.Calendar.SyncDays
			if days > 0 {
				horizon = days
			}
			out := cmd.OutOrStdout()

			if agenda {
				events, err := svc.Agenda(ctx, gcal, svc.Now(), horizon)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.Heading(ui.IconCal, fmt.Sprintf("Next %d day(s) on %s", horizon, cfg.Calendar.Name)))
				for _, ev := range events {
					mark := ""
					if ev.TaskID != "" {
						mark = ui.Muted.Render(" [compass]")
					}
					fmt.Fprintf(out, "  %s %s%s\n", ui.Muted.Render(ev.Start().Format("2006-01-02 15:04")), ev.Title, mark)
				}
				return nil
			}

			report, err := svc.SyncCalendar(ctx, gcal, horizon)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %d pushed, %d skipped, %d failed\n", ui.Good.Render(ui.IconCal+" Synced"), len(report.Pushed), len(report.Skipped), len(report.Failed))
			ids := make([]string, 0, len(report.Failed))
			for id := range report.Failed {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(out, "  %s %s: %v\n", ui.Bad.Render("✗"), ui.ShortID(id), report.Failed[id])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&auth, "auth", false, "Run the OAuth flow and save the token")
	cmd.Flags().IntVar(&days, "days", 0, "Override calendar.sync_days")
	cmd.Flags().BoolVar(&agenda, "list", false, "List upcoming calendar events instead of pushing")
	return cmd
}
