package model

import "time"

// Listing is one row of the calendar. Identity is ID.
type Listing struct {
	ID   string
	Name string
}

// Link is the navigable target for a listing's row label.
func (l Listing) Link() string {
	return "/properties/" + l.ID
}

// Booking is an occupancy interval attached to exactly one listing.
//
// Start and End are check-in and check-out. Only their calendar days matter
// to the timeline; callers guarantee Start <= End (a same-day booking has
// both on one day). Bookings with End before Start are not repaired.
type Booking struct {
	ID        string
	ListingID string

	Summary string
	// Source is the feed the booking came from (a listing may have several).
	Source string

	Start time.Time
	End   time.Time
}
