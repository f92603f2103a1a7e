package root

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"compass/internal/api"
	"compass/internal/config"
	"compass/internal/logger"
	"compass/internal/worker"
)

func newServeCmd() *cobra.Command {
	var addr string
	var remindEvery time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if global.logLevel == "" && cfg.Log.Level == config.DefaultConfig().Log.Level {
				if err := logger.Init("info", cfg.Log.Development); err != nil {
					return err
				}
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, cleanup, err := openServiceWith(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			go worker.NewReminder(svc, remindEvery, nil).Start(ctx)
			return api.Serve(ctx, cfg.Server.Addr, svc)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().DurationVar(&remindEvery, "remind-every", 5*time.Minute, "How often to log due-date reminders")
	return cmd
}
