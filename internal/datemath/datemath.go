// Package datemath converts between calendar days and integer day offsets.
//
// A calendar day is a time.Time at local midnight in its own Location. No
// timezone conversion happens here; every value is read in whatever Location
// it already carries.
package datemath

import "time"

const hoursPerDay = 24

// StartOfDay truncates t to midnight of its calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays returns the calendar day n days after t's day (n may be negative).
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the signed number of calendar days from a to b.
//
// The count is taken on the civil dates, not on elapsed hours, so DST
// transitions (23h or 25h days) do not shift the result and
// DaysBetween(a, AddDays(a, n)) == n holds for every n.
func DaysBetween(a, b time.Time) int {
	return int(civil(b).Sub(civil(a)).Hours()) / hoursPerDay
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// civil re-anchors t's calendar date at UTC midnight, where every day is
// exactly 24 hours long.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
