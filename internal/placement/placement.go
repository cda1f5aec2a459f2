// Package placement maps bookings onto the day columns of a materialized
// window.
package placement

import (
	"iter"
	"time"

	"staycal/internal/datemath"
	"staycal/internal/model"
)

// Window is the materialized range [Origin, Origin+Days).
type Window struct {
	Origin time.Time
	Days   int
}

// Day returns the calendar day shown in column col.
func (w Window) Day(col int) time.Time {
	return datemath.AddDays(w.Origin, col)
}

// Run is the contiguous column range one booking occupies in a window,
// already clipped to [0, Days).
type Run struct {
	Start   int
	End     int // inclusive
	Booking model.Booking

	// TurnoverOnEntry and TurnoverOnExit flag whether the first and last
	// columns of the run fall on turnover days.
	TurnoverOnEntry bool
	TurnoverOnExit  bool

	window    Window
	turnovers Turnovers
}

// Segment is one day of a Run: the unit a BookingBar draws.
type Segment struct {
	Column  int
	Day     time.Time
	Booking model.Booking

	// CheckIn and CheckOut are true on the booking's real first and last
	// day, not on days where the run was clipped by the window edge.
	CheckIn  bool
	CheckOut bool
	Turnover bool
}

// Len is the number of columns the run covers.
func (r Run) Len() int {
	return r.End - r.Start + 1
}

// Segments yields one Segment per column of the run, left to right.
func (r Run) Segments() iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		for col := r.Start; col <= r.End; col++ {
			d := r.window.Day(col)
			seg := Segment{
				Column:   col,
				Day:      d,
				Booking:  r.Booking,
				CheckIn:  datemath.SameDay(d, r.Booking.Start),
				CheckOut: datemath.SameDay(d, r.Booking.End),
				Turnover: r.turnovers.On(d),
			}
			if !yield(seg) {
				return
			}
		}
	}
}

// Turnovers records, for one listing, the days with both a check-in and a
// check-out. The pair may come from any two bookings (or one same-day
// booking) of that listing.
type Turnovers struct {
	days map[civilDay]struct{}
}

type civilDay struct {
	y int
	m time.Month
	d int
}

func civilOf(t time.Time) civilDay {
	y, m, d := t.Date()
	return civilDay{y, m, d}
}

// FindTurnovers scans a listing's bookings once.
func FindTurnovers(bookings []model.Booking) Turnovers {
	checkIns := make(map[civilDay]struct{}, len(bookings))
	for _, b := range bookings {
		checkIns[civilOf(b.Start)] = struct{}{}
	}
	days := make(map[civilDay]struct{})
	for _, b := range bookings {
		out := civilOf(b.End)
		if _, ok := checkIns[out]; ok {
			days[out] = struct{}{}
		}
	}
	return Turnovers{days: days}
}

// On reports whether t's calendar day is a turnover day.
func (t Turnovers) On(day time.Time) bool {
	_, ok := t.days[civilOf(day)]
	return ok
}

// Row lays out one listing's bookings (sorted by Start, as produced by the
// index) in w. Bookings starting after the window are skipped until it
// extends over them. Bookings that ended before the window clamp to a single
// column at 0.
// Turnover days are computed on first iteration.
func Row(w Window, bookings []model.Booking) iter.Seq[Run] {
	return func(yield func(Run) bool) {
		if w.Days <= 0 || len(bookings) == 0 {
			return
		}
		turnovers := FindTurnovers(bookings)
		last := w.Days - 1
		for _, b := range bookings {
			startIdx := datemath.DaysBetween(w.Origin, b.Start)
			endIdx := datemath.DaysBetween(w.Origin, b.End)
			start := max(0, startIdx)
			if start > last {
				continue
			}
			end := min(last, max(0, endIdx))
			run := Run{
				Start:           start,
				End:             end,
				Booking:         b,
				TurnoverOnEntry: turnovers.On(w.Day(start)),
				TurnoverOnExit:  turnovers.On(w.Day(end)),
				window:          w,
				turnovers:       turnovers,
			}
			if !yield(run) {
				return
			}
		}
	}
}

// RowSegments flattens Row into per-day segments.
func RowSegments(w Window, bookings []model.Booking) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		for run := range Row(w, bookings) {
			for seg := range run.Segments() {
				if !yield(seg) {
					return
				}
			}
		}
	}
}
