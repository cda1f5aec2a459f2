package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appLog "staycal/internal/log"
	"staycal/internal/web"
)

func addServe(topLevel *cobra.Command, o *RootOptions) {
	listen := ""

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar page and JSON API.",
		Example: `
staycal serve
staycal serve --listen 0.0.0.0:8080
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.load()
			if err != nil {
				return err
			}
			if listen != "" {
				e.cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, err := e.refresher.Refresh(ctx); err != nil {
				appLog.Error("initial feed refresh failed", err)
			}
			if err := e.refresher.Schedule(ctx, e.cfg.RefreshCron); err != nil {
				return err
			}

			err = web.NewServer(e.cfg, e.store, e.refresher).ListenAndServe(ctx)
			appLog.Info("staycal exiting")
			return err
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "",
		"HTTP listen address (overrides config if set).")

	topLevel.AddCommand(cmd)
}
