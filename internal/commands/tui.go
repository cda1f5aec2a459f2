package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	appLog "staycal/internal/log"
	"staycal/internal/tui"
)

func addTUI(topLevel *cobra.Command, o *RootOptions) {
	logFile := ""

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the timeline in the terminal.",
		Long: `Browse the timeline in the terminal.

Keys: ←/→ or h/l scroll a day, pgup/pgdn a screen, ↑/↓ select a listing,
n jumps to its next check-in, t back to today, r refreshes, q quits.
The mouse wheel scrolls horizontally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.load()
			if err != nil {
				return err
			}
			if _, err := e.refresher.Refresh(cmd.Context()); err != nil {
				return err
			}

			// The program owns the terminal; keep log lines off it.
			var w io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			appLog.SetOutput(w)
			defer appLog.SetOutput(os.Stderr)

			return tui.Run(tui.New(e.store, e.refresher, e.cfg.Terminal.AxisOptions(), e.today()))
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "",
		"Append log lines to this file while the UI runs.")

	topLevel.AddCommand(cmd)
}
