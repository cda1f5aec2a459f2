package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"staycal/internal/axis"
	"staycal/internal/render"
	"staycal/internal/scrollsync"
)

func addRender(topLevel *cobra.Command, o *RootOptions) {
	width := 120
	labelWidth := 24
	plain := false

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print one screen of the timeline, starting at today.",
		Example: `
staycal render
staycal render --width 200 --plain > today.txt
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.load()
			if err != nil {
				return err
			}
			if _, err := e.refresher.Refresh(cmd.Context()); err != nil {
				return err
			}
			snap := e.store.Current()

			v := scrollsync.NewViewport(axis.New(e.today(), e.cfg.Terminal.AxisOptions()))
			v.Resize(max(1, width-labelWidth))

			lines := render.Grid(
				render.Timeline{Axis: v.Axis(), Listings: snap.Listings, Index: snap.Index},
				render.Frame{ScrollLeft: v.ScrollLeft(), Width: v.ClientWidth(), LabelWidth: labelWidth, Selected: -1},
				nil,
			)

			out := cmd.OutOrStdout()
			if plain || color.NoColor {
				text := make([]string, 0, len(lines))
				for _, l := range lines {
					text = append(text, l.Plain())
				}
				_, _ = fmt.Fprintln(out, strings.Join(text, "\n"))
				return nil
			}
			_, _ = fmt.Fprintln(out, render.Render(lines))
			return nil
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", width, "Total width in cells, label column included.")
	cmd.Flags().IntVar(&labelWidth, "label-width", labelWidth, "Width of the listing label column.")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print without colors.")

	topLevel.AddCommand(cmd)
}
