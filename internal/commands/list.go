package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"staycal/internal/printers"
)

func addList(topLevel *cobra.Command, o *RootOptions) {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List listings with their stay in progress and next check-in.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.load()
			if err != nil {
				return err
			}
			snap, err := e.refresher.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			printers.Listings(color.Output, snap, e.today())
			printers.Problems(color.Error, snap)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
