package printers

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"staycal/internal/feed"
)

// Listings prints one line per listing: its booking count, the stay in
// progress today (if any) and the next check-in.
func Listings(w io.Writer, snap *feed.Snapshot, today time.Time) {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	if len(snap.Listings) == 0 {
		_, _ = fmt.Fprintln(w, faint("no listings configured"))
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	tbl.AddRow(bold("ID"), bold("Name"), bold("Bookings"), bold("Occupied"), bold("Next check-in"))

	for _, l := range snap.Listings {
		bookings := snap.Index.For(l.ID)
		occupied := faint("-")
		for _, b := range bookings {
			if !today.Before(b.Start) && today.Before(b.End) {
				occupied = color.YellowString(b.Summary)
				break
			}
		}
		next := faint("none")
		if b, ok := snap.Index.NextCheckIn(l.ID, today); ok {
			next = b.Start.Format("Mon Jan 2") + " " + faint(b.Summary)
		}
		tbl.AddRow(l.ID, l.Name, len(bookings), occupied, next)
	}
	_, _ = fmt.Fprintln(w, tbl)
}

// Problems prints per-source refresh failures, if any.
func Problems(w io.Writer, snap *feed.Snapshot) {
	if len(snap.Errors) == 0 {
		return
	}
	red := color.New(color.FgRed)
	_, _ = red.Fprintf(w, "%d feed(s) failed:\n", len(snap.Errors))
	for _, e := range snap.Errors {
		_, _ = fmt.Fprintln(w, "  "+e)
	}
}
