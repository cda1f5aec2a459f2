package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 15, 0, 0, 0, time.UTC)
}

func ids(list []model.Booking) []string {
	out := make([]string, 0, len(list))
	for _, b := range list {
		out = append(out, b.ID)
	}
	return out
}

func TestBuild_GroupsAndSorts(t *testing.T) {
	ix := Build([]model.Booking{
		{ID: "a3", ListingID: "a", Start: day(20), End: day(22)},
		{ID: "b1", ListingID: "b", Start: day(2), End: day(3)},
		{ID: "a1", ListingID: "a", Start: day(1), End: day(4)},
		{ID: "a2", ListingID: "a", Start: day(10), End: day(12)},
	})

	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, []string{"a1", "a2", "a3"}, ids(ix.For("a")))
	assert.Equal(t, []string{"b1"}, ids(ix.For("b")))
}

func TestBuild_StableOnTies(t *testing.T) {
	ix := Build([]model.Booking{
		{ID: "second", ListingID: "a", Start: day(5)},
		{ID: "late", ListingID: "a", Start: day(9)},
		{ID: "third", ListingID: "a", Start: day(5)},
		{ID: "first", ListingID: "a", Start: day(1)},
	})
	assert.Equal(t, []string{"first", "second", "third", "late"}, ids(ix.For("a")))
}

func TestFor_UnknownListing(t *testing.T) {
	ix := Build([]model.Booking{{ID: "x", ListingID: "orphan", Start: day(1)}})
	assert.Empty(t, ix.For("missing"))

	var zero Index
	assert.Empty(t, zero.For("anything"))
	assert.Equal(t, 0, zero.Len())
}

func TestNextCheckIn(t *testing.T) {
	ix := Build([]model.Booking{
		{ID: "past", ListingID: "a", Start: day(1), End: day(3)},
		{ID: "current", ListingID: "a", Start: day(9), End: day(12)},
		{ID: "next", ListingID: "a", Start: day(14), End: day(16)},
		{ID: "later", ListingID: "a", Start: day(20), End: day(21)},
	})

	// Today is the 10th, afternoon: the stay that began on the 9th is running.
	today := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	b, ok := ix.NextCheckIn("a", today)
	require.True(t, ok)
	assert.Equal(t, "next", b.ID)

	// A check-in later today is not "next"; it has to be after today.
	b, ok = ix.NextCheckIn("a", time.Date(2024, 1, 14, 8, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "later", b.ID)

	_, ok = ix.NextCheckIn("a", day(25))
	assert.False(t, ok)
	_, ok = ix.NextCheckIn("nobody", day(1))
	assert.False(t, ok)
}
