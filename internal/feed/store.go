package feed

import (
	"sync"
	"time"

	"staycal/internal/index"
	"staycal/internal/model"
)

// Snapshot is one consistent view of listings and their bookings. It is
// replaced wholesale on refresh and never mutated after publication.
type Snapshot struct {
	Listings  []model.Listing
	Bookings  []model.Booking
	Index     index.Index
	UpdatedAt time.Time
	// Errors holds per-source failures of the refresh that produced it.
	Errors []string
}

// NewSnapshot indexes bookings for the given listings.
func NewSnapshot(listings []model.Listing, bookings []model.Booking, updatedAt time.Time) *Snapshot {
	return &Snapshot{
		Listings:  listings,
		Bookings:  bookings,
		Index:     index.Build(bookings),
		UpdatedAt: updatedAt,
	}
}

// Listing looks a listing up by ID.
func (s *Snapshot) Listing(id string) (model.Listing, bool) {
	for _, l := range s.Listings {
		if l.ID == id {
			return l, true
		}
	}
	return model.Listing{}, false
}

// Store holds the latest snapshot for concurrent readers.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewStore starts with an empty snapshot for listings, so hosts can draw
// rows before the first refresh completes.
func NewStore(listings []model.Listing) *Store {
	return &Store{snap: NewSnapshot(listings, nil, time.Time{})}
}

// Current returns the latest snapshot.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Publish replaces the current snapshot.
func (s *Store) Publish(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
