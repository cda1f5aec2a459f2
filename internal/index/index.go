// Package index groups bookings by listing, ordered by check-in.
package index

import (
	"slices"
	"time"

	"staycal/internal/datemath"
	"staycal/internal/model"
)

// Index maps a listing ID to its bookings sorted by Start ascending. Ties
// keep input order. The zero value is an empty index.
type Index struct {
	byListing map[string][]model.Booking
}

// Build groups and sorts bookings. It is rebuilt whenever the booking set
// changes; nothing mutates an Index afterwards.
func Build(bookings []model.Booking) Index {
	byListing := make(map[string][]model.Booking)
	for _, b := range bookings {
		byListing[b.ListingID] = append(byListing[b.ListingID], b)
	}
	for _, list := range byListing {
		slices.SortStableFunc(list, func(a, b model.Booking) int {
			return a.Start.Compare(b.Start)
		})
	}
	return Index{byListing: byListing}
}

// For returns the sorted bookings of one listing. Unknown IDs yield nil.
// The returned slice is shared and must not be modified.
func (ix Index) For(listingID string) []model.Booking {
	return ix.byListing[listingID]
}

// Len is the number of listings that have at least one booking.
func (ix Index) Len() int {
	return len(ix.byListing)
}

// NextCheckIn returns the first booking of a listing whose check-in day is
// strictly after today's. A stay that is in progress today does not count.
func (ix Index) NextCheckIn(listingID string, today time.Time) (model.Booking, bool) {
	day := datemath.StartOfDay(today)
	for _, b := range ix.byListing[listingID] {
		if datemath.DaysBetween(day, b.Start) > 0 {
			return b, true
		}
	}
	return model.Booking{}, false
}
