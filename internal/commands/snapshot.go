package commands

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"staycal/internal/capture"
	appLog "staycal/internal/log"
	"staycal/internal/web"
)

func addSnapshot(topLevel *cobra.Command, o *RootOptions) {
	opts := capture.Options{}
	originString := ""
	days := 0

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save a PNG of the calendar page using headless Chromium.",
		Example: `
staycal snapshot -o calendar.png
staycal snapshot -o june.png --origin 2024-06-01 --days 60
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var origin time.Time
			if originString != "" {
				var err error
				if origin, err = time.Parse(time.DateOnly, originString); err != nil {
					return fmt.Errorf("--origin: %w", err)
				}
			}

			e, err := o.load()
			if err != nil {
				return err
			}
			if _, err := e.refresher.Refresh(cmd.Context()); err != nil {
				return err
			}

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			srv := web.NewServer(e.cfg, e.store, nil)
			served := make(chan error, 1)
			go func() { served <- srv.Serve(ctx, ln) }()

			opts.URL, err = capture.CalendarURL("http://"+ln.Addr().String(), origin, days)
			if err != nil {
				return err
			}
			if auth := e.cfg.BasicAuth; auth != nil {
				opts.Username, opts.Password = auth.Username, auth.Password
			}

			png, err := capture.CalendarPNG(ctx, opts)
			cancel()
			if serr := <-served; serr != nil {
				appLog.Error("snapshot server stopped with error", serr)
			}
			if err != nil {
				return err
			}
			appLog.Info("snapshot written", "path", opts.OutputPath, "bytes", len(png))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "calendar.png", "Where to write the PNG.")
	cmd.Flags().IntVar(&opts.Width, "width", capture.DefaultWidth, "Viewport width in pixels.")
	cmd.Flags().IntVar(&opts.Height, "height", capture.DefaultHeight, "Viewport height in pixels.")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Give up after this long.")
	cmd.Flags().StringVar(&originString, "origin", "",
		`First day of the window, example: --origin="2024-06-01". Defaults to a few weeks before today.`)
	cmd.Flags().IntVar(&days, "days", 0, "Number of days in the window, with --origin.")

	topLevel.AddCommand(cmd)
}
