// Package render draws the timeline for the terminal and the browser.
package render

import (
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"staycal/internal/placement"
)

// Bar draws one day of one booking. Implementations are free to style the
// interior of a cell however they like; the grid only asks for text of an
// exact width and a style to paint it with.
type Bar interface {
	Text(seg placement.Segment, width int) string
	Style(seg placement.Segment) lipgloss.Style
}

// BookingBar is the default Bar. A stay reads "[Guest====]": the summary
// starts on the check-in day and the bracket closes on the check-out day.
type BookingBar struct {
	Palette []lipgloss.Color
}

var defaultPalette = []lipgloss.Color{
	"#2563EB", "#16A34A", "#D97706", "#9333EA", "#DB2777", "#0891B2",
}

// Text returns exactly width runes.
func (b BookingBar) Text(seg placement.Segment, width int) string {
	if width <= 0 {
		return ""
	}
	cells := []rune(strings.Repeat("=", width))
	if seg.CheckIn {
		cells[0] = '['
		label := []rune(seg.Booking.Summary)
		copy(cells[min(1, width-1):], label[:min(len(label), max(0, width-1))])
	}
	if seg.CheckOut {
		cells[width-1] = ']'
	}
	return string(cells)
}

// Style colors a booking consistently across all of its days.
func (b BookingBar) Style(seg placement.Segment) lipgloss.Style {
	palette := b.Palette
	if len(palette) == 0 {
		palette = defaultPalette
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(seg.Booking.ID))
	c := palette[h.Sum32()%uint32(len(palette))]

	st := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(c)
	if seg.Turnover {
		st = st.Bold(true)
	}
	return st
}
