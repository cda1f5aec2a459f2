package feed

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"staycal/internal/datemath"
	appLog "staycal/internal/log"
	"staycal/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the zone bookings are converted to, so that their
	// calendar days are read there. If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single RRULE. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded bookings and truncation information.
type ExpandResult struct {
	Bookings []model.Booking
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// Expand turns parsed VEVENTs into bookings within the configured range. It
// handles single events, RRULE recurrence with EXDATE, RECURRENCE-ID
// overrides and STATUS:CANCELLED. Output order is not significant; the
// timeline index sorts it.
func Expand(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group base events and overrides by UID within a listing.
	type key struct{ listing, uid string }
	baseByUID := make(map[key][]ParsedEvent)
	overridesByUID := make(map[key][]ParsedEvent)
	order := make([]key, 0)

	for _, ev := range events {
		k := key{ev.Source.ListingID, ev.UID}
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[k] = append(overridesByUID[k], ev)
			continue
		}
		if _, ok := baseByUID[k]; !ok {
			order = append(order, k)
		}
		baseByUID[k] = append(baseByUID[k], ev)
	}

	for _, k := range order {
		ov := overridesByUID[k]
		truncated := false

		for _, ev := range baseByUID[k] {
			bookings, hitCap := expandEvent(ev, ov, cfg)
			if hitCap {
				truncated = true
			}
			result.Bookings = append(result.Bookings, bookings...)
		}

		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, k.uid)
			appLog.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", k.uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Booking, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Booking {
	if o, ok := findOverrideForStart(overrides, ev.Start); ok {
		ev = o
	}
	if ev.Cancelled || !timeRangesOverlap(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []model.Booking{makeBooking(ev, ev.Start, ev.End, false, cfg.DisplayLocation)}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Booking, bool) {
	out := make([]model.Booking, 0)
	hitCap := false

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	rangeStart := cfg.RangeStart.In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	nights := datemath.DaysBetween(ev.Start, ev.End)
	dur := ev.End.Sub(ev.Start)

	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			// Keep the same number of calendar days; hours vary across DST.
			occStart = datemath.StartOfDay(occStart)
			occEnd = datemath.AddDays(occStart, nights)
		} else {
			occEnd = occStart.Add(dur)
		}

		baseEv := ev
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			baseEv = o
			occStart, occEnd = o.Start, o.End
		}
		if baseEv.Cancelled {
			continue
		}

		out = append(out, makeBooking(baseEv, occStart, occEnd, true, cfg.DisplayLocation))
	}

	return out, hitCap
}

// findOverrideForStart finds an override whose RECURRENCE-ID equals start.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeBooking converts one (possibly overridden) occurrence into a booking
// in displayLoc. Recurring instances get the instance day appended to the
// UID so every booking ID is unique.
func makeBooking(ev ParsedEvent, start, end time.Time, recurring bool, displayLoc *time.Location) model.Booking {
	startLocal := start.In(displayLoc)
	endLocal := end.In(displayLoc)
	if ev.AllDay {
		// Date values are already anchored in the display zone; converting
		// would only move them across midnight.
		startLocal, endLocal = start, end
	}

	id := ev.UID
	if recurring {
		id += "@" + startLocal.Format("20060102")
	}

	return model.Booking{
		ID:        id,
		ListingID: ev.Source.ListingID,
		Summary:   ev.Summary,
		Source:    ev.Source.URL,
		Start:     startLocal,
		End:       endLocal,
	}
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}
