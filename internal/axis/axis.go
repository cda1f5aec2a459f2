// Package axis owns the materialized window of the infinite timeline.
//
// The unbounded date axis is kept as one contiguous window
// [Origin, Origin+DayCount) indexed by integer column. The window only grows:
// forward extension appends columns, backward extension prepends them and
// leaves a scroll correction for the host to apply once its layout has caught
// up (see Settle).
//
// Widths are in host units: CSS pixels for the web view, terminal cells for
// the TUI. The axis never reads the clock; today is passed to New.
package axis

import (
	"time"

	"staycal/internal/datemath"
)

// Options configures an Axis. Zero fields take the DefaultOptions value; a
// negative InitialPastDays starts the window on today.
type Options struct {
	// StartDays is the initial number of materialized days.
	StartDays int
	// ExtendDays is the extension quantum in days.
	ExtendDays int
	// ColumnWidth is the base column width used until the first Resize.
	ColumnWidth int
	// InitialPastDays is how many days before today column 0 starts at.
	InitialPastDays int
	// MinColumnWidth is the floor for responsive column width.
	MinColumnWidth int
	// VisibleColumns is how many columns Resize aims to fit in the viewport.
	VisibleColumns int
	// MinThreshold is the lower bound of the extension trigger distance.
	MinThreshold int
}

// DefaultOptions returns the pixel-host defaults.
func DefaultOptions() Options {
	return Options{
		StartDays:       90,
		ExtendDays:      60,
		ColumnWidth:     40,
		InitialPastDays: 21,
		MinColumnWidth:  24,
		VisibleColumns:  7,
		MinThreshold:    200,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.StartDays <= 0 {
		o.StartDays = def.StartDays
	}
	if o.ExtendDays <= 0 {
		o.ExtendDays = def.ExtendDays
	}
	if o.MinColumnWidth <= 0 {
		o.MinColumnWidth = def.MinColumnWidth
	}
	if o.ColumnWidth <= 0 {
		o.ColumnWidth = def.ColumnWidth
	}
	if o.InitialPastDays == 0 {
		o.InitialPastDays = def.InitialPastDays
	} else if o.InitialPastDays < 0 {
		o.InitialPastDays = 0
	}
	if o.VisibleColumns <= 0 {
		o.VisibleColumns = def.VisibleColumns
	}
	if o.MinThreshold <= 0 {
		o.MinThreshold = def.MinThreshold
	}
	return o
}

// Observation is one reading of the scrollable body's horizontal geometry.
type Observation struct {
	ScrollLeft  int
	ClientWidth int
	ScrollWidth int
}

// Transition reports which extensions an observation caused.
type Transition struct {
	Forward  bool
	Backward bool
}

// Extended reports whether the window grew.
func (t Transition) Extended() bool {
	return t.Forward || t.Backward
}

// State is a read-only copy of the axis for logging and APIs.
type State struct {
	Origin      time.Time `json:"origin"`
	DayCount    int       `json:"day_count"`
	ColumnWidth int       `json:"column_width"`
	TodayIndex  int       `json:"today_index"`
}

// Axis is the timeline state machine. It is owned by a single view and is
// not safe for concurrent use.
type Axis struct {
	opts Options

	today    time.Time
	origin   time.Time
	days     int
	colWidth int

	// forwardLatched holds off forward extension until a later observation
	// shows a scrollWidth larger than latchWidth, i.e. until the host has laid
	// out the columns the previous extension added.
	forwardLatched bool
	latchWidth     int

	// pendingDays counts prepended columns whose scroll correction has not
	// been handed out by Settle yet.
	pendingDays int
}

// New builds the initial window: origin is InitialPastDays before today's
// day and StartDays columns are materialized.
func New(today time.Time, opts Options) *Axis {
	opts = opts.withDefaults()
	t := datemath.StartOfDay(today)
	return &Axis{
		opts:     opts,
		today:    t,
		origin:   datemath.AddDays(t, -opts.InitialPastDays),
		days:     opts.StartDays,
		colWidth: opts.ColumnWidth,
	}
}

// Restore rebuilds an axis whose window a host already materialized, e.g.
// from a page's origin and day-count parameters. days below 1 fall back to
// StartDays.
func Restore(today, origin time.Time, days int, opts Options) *Axis {
	a := New(today, opts)
	a.origin = datemath.StartOfDay(origin)
	if days > 0 {
		a.days = days
	}
	return a
}

// Options returns the options with defaults applied.
func (a *Axis) Options() Options { return a.opts }

// Today is the start of the day passed to New.
func (a *Axis) Today() time.Time { return a.today }

// Origin is the day at column 0.
func (a *Axis) Origin() time.Time { return a.origin }

// DayCount is the number of materialized columns.
func (a *Axis) DayCount() int { return a.days }

// ColumnWidth is the current column width in host units.
func (a *Axis) ColumnWidth() int { return a.colWidth }

// TotalWidth is the width the host should lay out for the whole window.
func (a *Axis) TotalWidth() int { return a.days * a.colWidth }

// PendingDays is the number of prepended columns not yet settled.
func (a *Axis) PendingDays() int { return a.pendingDays }

// Day is the calendar day of column col.
func (a *Axis) Day(col int) time.Time { return datemath.AddDays(a.origin, col) }

// Column is the (possibly out of range) column index of t's day.
func (a *Axis) Column(t time.Time) int {
	return datemath.DaysBetween(a.origin, t)
}

// TodayIndex is today's column. It is negative or >= DayCount when today is
// outside the materialized window.
func (a *Axis) TodayIndex() int {
	return a.Column(a.today)
}

// TodayVisible reports whether today's column is materialized.
func (a *Axis) TodayVisible() bool {
	i := a.TodayIndex()
	return i >= 0 && i < a.days
}

// Threshold is the extension trigger distance: about two columns of lead,
// never less than MinThreshold.
func (a *Axis) Threshold() int {
	return max(a.opts.MinThreshold, 2*a.colWidth)
}

// Offset is the left edge of a column in host units.
func (a *Axis) Offset(col int) int {
	return col * a.colWidth
}

// InitialScrollLeft places today's column at the left edge of the viewport.
func (a *Axis) InitialScrollLeft() int {
	return max(0, a.TodayIndex()) * a.colWidth
}

// State snapshots the window.
func (a *Axis) State() State {
	return State{
		Origin:      a.origin,
		DayCount:    a.days,
		ColumnWidth: a.colWidth,
		TodayIndex:  a.TodayIndex(),
	}
}

// Observe applies one scroll reading.
//
// Forward: when the right edge of the viewport comes within Threshold of the
// end of the content, ExtendDays columns are appended. Further forward
// extensions are held off until an observation reports a wider scrollWidth,
// so repeated ticks against a stale layout extend once.
//
// Backward: when scrollLeft is within Threshold of the start, origin moves
// back ExtendDays and the same number of columns is added. The host must then
// lay out the new columns and add Settle() to its scroll offset; until it
// does, further backward extensions are held off.
//
// Both may fire on one observation when the content is narrower than two
// thresholds.
func (a *Axis) Observe(o Observation) Transition {
	var tr Transition
	threshold := a.Threshold()

	if a.forwardLatched && o.ScrollWidth > a.latchWidth {
		a.forwardLatched = false
	}
	if !a.forwardLatched && o.ScrollLeft+o.ClientWidth >= o.ScrollWidth-threshold {
		a.days += a.opts.ExtendDays
		a.forwardLatched = true
		a.latchWidth = o.ScrollWidth
		tr.Forward = true
	}

	if a.pendingDays == 0 && o.ScrollLeft <= threshold {
		a.origin = datemath.AddDays(a.origin, -a.opts.ExtendDays)
		a.days += a.opts.ExtendDays
		a.pendingDays = a.opts.ExtendDays
		tr.Backward = true
	}

	return tr
}

// Settle returns the scroll correction owed for prepended columns, in host
// units at the current column width, and clears it. Hosts call it after the
// layout reflects the new DayCount and add the result to scrollLeft; the day
// that was at the viewport's left edge then stays at the same screen position.
func (a *Axis) Settle() int {
	px := a.pendingDays * a.colWidth
	a.pendingDays = 0
	return px
}

// Resize recomputes the column width from the viewport width:
// max(MinColumnWidth, clientWidth / VisibleColumns). A zero or negative
// width (nothing measured yet) falls back to MinColumnWidth. Origin and
// DayCount are untouched. It reports whether the width changed.
func (a *Axis) Resize(clientWidth int) bool {
	w := a.opts.MinColumnWidth
	if clientWidth > 0 {
		w = max(a.opts.MinColumnWidth, clientWidth/a.opts.VisibleColumns)
	}
	if w == a.colWidth {
		return false
	}
	a.colWidth = w
	// The host's scrollWidth is about to change for reasons unrelated to
	// extension; compare against fresh readings from here on.
	a.forwardLatched = false
	return true
}
