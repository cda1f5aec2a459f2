package render

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"staycal/internal/axis"
	"staycal/internal/index"
	"staycal/internal/model"
	"staycal/internal/placement"
	"staycal/internal/scrollsync"
)

// EmptyMessage is shown in place of rows when there are no listings.
const EmptyMessage = "No properties yet. Add listings to the config file."

// Timeline is the data one frame is drawn from.
type Timeline struct {
	Axis     *axis.Axis
	Listings []model.Listing
	Index    index.Index
}

// Window is the axis' materialized range as a placement window.
func (tl Timeline) Window() placement.Window {
	return placement.Window{Origin: tl.Axis.Origin(), Days: tl.Axis.DayCount()}
}

// Frame is the part of the timeline a text host shows.
type Frame struct {
	ScrollLeft int
	// Width is the body width in cells, excluding the label column.
	Width      int
	LabelWidth int
	// Selected is the highlighted row, or -1.
	Selected int
}

// Span is a run of text painted with one style.
type Span struct {
	Text  string
	Style lipgloss.Style
}

// Line is one terminal row.
type Line []Span

// Plain returns the line without styling.
func (l Line) Plain() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Render paints the line.
func (l Line) Render() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.Style.Render(s.Text))
	}
	return b.String()
}

// Styles used by the text grid.
var (
	plainStyle   = lipgloss.NewStyle()
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	selectStyle  = lipgloss.NewStyle().Reverse(true)
	weekendStyle = lipgloss.NewStyle().Background(lipgloss.Color("#1F2937"))
	todayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	monthStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true)
)

// placed is a span at an absolute x offset of the materialized content.
type placed struct {
	x     int
	text  []rune
	style lipgloss.Style
}

// Grid lays out the header and one line per listing. The header is cut at
// the offset HeaderOffset gives for the body's scrollLeft, so both move
// together; the label column is outside the cut and never moves.
func Grid(tl Timeline, f Frame, bar Bar) []Line {
	if bar == nil {
		bar = BookingBar{}
	}
	if f.LabelWidth <= 0 {
		f.LabelWidth = 24
	}
	a := tl.Axis
	cw := a.ColumnWidth()
	headerX := -scrollsync.HeaderOffset(f.ScrollLeft)
	first := max(0, f.ScrollLeft/cw)
	last := min(a.DayCount()-1, (f.ScrollLeft+max(1, f.Width)-1)/cw)

	lines := make([]Line, 0, len(tl.Listings)+2)
	lines = append(lines,
		withLabel("", f.LabelWidth, plainStyle, crop(monthHeader(a, first, last, headerX), headerX, f.Width)),
		withLabel("Listing", f.LabelWidth, labelStyle, crop(dayHeader(a, first, last), headerX, f.Width)),
	)

	if len(tl.Listings) == 0 {
		lines = append(lines, withLabel("", f.LabelWidth, plainStyle, Line{{Text: fit(EmptyMessage, f.Width), Style: mutedStyle}}))
		return lines
	}

	w := tl.Window()
	for i, l := range tl.Listings {
		body := crop(rowCells(a, w, tl.Index.For(l.ID), first, last, bar), f.ScrollLeft, f.Width)
		st := labelStyle
		if i == f.Selected {
			st = selectStyle
		}
		lines = append(lines, withLabel(RowLabel(tl, l), f.LabelWidth, st, body))
	}
	return lines
}

// RowLabel is the pinned label of a row: the listing name and its next
// check-in, if any.
func RowLabel(tl Timeline, l model.Listing) string {
	next, ok := tl.Index.NextCheckIn(l.ID, tl.Axis.Today())
	if !ok {
		return l.Name
	}
	return l.Name + " → " + next.Start.Format("Jan 2")
}

// Render joins painted lines.
func Render(lines []Line) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Render())
	}
	return strings.Join(out, "\n")
}

func withLabel(label string, width int, st lipgloss.Style, body Line) Line {
	out := make(Line, 0, len(body)+2)
	out = append(out, Span{Text: fit(label, width-1), Style: st}, Span{Text: "│", Style: mutedStyle})
	return append(out, body...)
}

func monthHeader(a *axis.Axis, first, last, x0 int) []placed {
	cw := a.ColumnWidth()
	var out []placed
	for c := first; c <= last; c++ {
		if a.Day(c).Day() == 1 {
			out = append(out, placed{x: c * cw, text: []rune(monthLabel(a.Day(c))), style: monthStyle})
		}
	}
	// Keep the current month named at the left edge until the next month
	// label reaches it.
	sticky := []rune(monthLabel(a.Day(first)))
	if len(out) == 0 || out[0].x >= x0+len(sticky)+1 {
		end := x0 + len(sticky)
		if len(out) > 0 {
			end = min(end, out[0].x-1)
		}
		out = append([]placed{{x: x0, text: sticky[:max(0, end-x0)], style: monthStyle}}, out...)
	}
	// Labels may not run into the next one.
	for i := 0; i+1 < len(out); i++ {
		room := out[i+1].x - out[i].x - 1
		if len(out[i].text) > room {
			out[i].text = out[i].text[:max(0, room)]
		}
	}
	return out
}

func monthLabel(d time.Time) string {
	return d.Format("Jan 2006")
}

func dayHeader(a *axis.Axis, first, last int) []placed {
	cw := a.ColumnWidth()
	today := a.TodayIndex()
	out := make([]placed, 0, last-first+1)
	for c := first; c <= last; c++ {
		d := a.Day(c)
		label := fmt.Sprintf("%d", d.Day())
		if cw >= 5 {
			label += " " + d.Weekday().String()[:2]
		}
		st := plainStyle
		switch {
		case c == today:
			st = todayStyle
		case isWeekend(d):
			st = weekendStyle
		}
		out = append(out, placed{x: c * cw, text: []rune(fit(label, cw)), style: st})
	}
	return out
}

func rowCells(a *axis.Axis, w placement.Window, bookings []model.Booking, first, last int, bar Bar) []placed {
	cw := a.ColumnWidth()
	today := a.TodayIndex()

	byCol := make(map[int][]placement.Segment)
	for seg := range placement.RowSegments(w, bookings) {
		if seg.Column >= first && seg.Column <= last {
			byCol[seg.Column] = append(byCol[seg.Column], seg)
		}
	}

	out := make([]placed, 0, last-first+1)
	for c := first; c <= last; c++ {
		x := c * cw
		segs := byCol[c]
		switch len(segs) {
		case 0:
			cell := []rune(strings.Repeat(" ", cw))
			st := plainStyle
			if isWeekend(a.Day(c)) {
				st = weekendStyle
			}
			if c == today {
				cell[0] = '│'
				st = todayStyle
			}
			out = append(out, placed{x: x, text: cell, style: st})
		case 1:
			out = append(out, placed{x: x, text: []rune(bar.Text(segs[0], cw)), style: bar.Style(segs[0])})
		default:
			// Turnover: the departing stay takes the left half of the day,
			// the arriving one the right half.
			dep, arr := segs[0], segs[len(segs)-1]
			lw := cw / 2
			if lw > 0 {
				out = append(out, placed{x: x, text: []rune(bar.Text(dep, lw)), style: bar.Style(dep)})
			}
			out = append(out, placed{x: x + lw, text: []rune(bar.Text(arr, cw-lw)), style: bar.Style(arr)})
		}
	}
	return out
}

// crop cuts [x0, x0+width) out of spans placed in content coordinates and
// pads gaps with blanks.
func crop(spans []placed, x0, width int) Line {
	slices.SortStableFunc(spans, func(a, b placed) int { return a.x - b.x })
	var line Line
	pos := x0
	end := x0 + width
	for _, s := range spans {
		sx, ex := max(s.x, pos), min(s.x+len(s.text), end)
		if ex <= sx {
			continue
		}
		if sx > pos {
			line = append(line, Span{Text: strings.Repeat(" ", sx-pos), Style: plainStyle})
		}
		line = append(line, Span{Text: string(s.text[sx-s.x : ex-s.x]), Style: s.style})
		pos = ex
	}
	if pos < end {
		line = append(line, Span{Text: strings.Repeat(" ", end-pos), Style: plainStyle})
	}
	return line
}

// fit truncates or pads s to exactly width runes.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > width {
		if width == 1 {
			return string(r[:1])
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
