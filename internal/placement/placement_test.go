package placement

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func columns(segs []Segment) []int {
	out := make([]int, 0, len(segs))
	for _, s := range segs {
		out = append(out, s.Column)
	}
	return out
}

func TestRow_Scenario(t *testing.T) {
	w := Window{Origin: date(2024, 1, 1), Days: 10}
	b := model.Booking{ID: "b", ListingID: "l", Start: date(2024, 1, 3).Add(16 * time.Hour), End: date(2024, 1, 5).Add(10 * time.Hour)}

	segs := slices.Collect(RowSegments(w, []model.Booking{b}))
	assert.Equal(t, []int{2, 3, 4}, columns(segs))

	assert.True(t, segs[0].CheckIn)
	assert.False(t, segs[0].CheckOut)
	assert.False(t, segs[1].CheckIn || segs[1].CheckOut)
	assert.True(t, segs[2].CheckOut)
	assert.Equal(t, date(2024, 1, 4), segs[1].Day)
}

func TestRow_ClipsToWindow(t *testing.T) {
	w := Window{Origin: date(2024, 1, 1), Days: 10}
	b := model.Booking{ID: "long", Start: date(2023, 12, 20), End: date(2024, 2, 1)}

	runs := slices.Collect(Row(w, []model.Booking{b}))
	require.Len(t, runs, 1)
	assert.Equal(t, 0, runs[0].Start)
	assert.Equal(t, 9, runs[0].End)
	assert.Equal(t, 10, runs[0].Len())

	segs := slices.Collect(runs[0].Segments())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, columns(segs))
	assert.False(t, segs[0].CheckIn, "clipped edge is not the real check-in")
	assert.False(t, segs[9].CheckOut, "clipped edge is not the real check-out")
}

func TestRow_SkipsOutsideWindow(t *testing.T) {
	w := Window{Origin: date(2024, 1, 1), Days: 10}
	bookings := []model.Booking{
		{ID: "before", Start: date(2023, 12, 1), End: date(2023, 12, 5)},
		{ID: "last-col", Start: date(2024, 1, 10), End: date(2024, 1, 14)},
		{ID: "after", Start: date(2024, 1, 11), End: date(2024, 1, 12)},
	}

	runs := slices.Collect(Row(w, bookings))
	require.Len(t, runs, 2)
	assert.Equal(t, "last-col", runs[1].Booking.ID)
	assert.Equal(t, 9, runs[1].Start)
	assert.Equal(t, 9, runs[1].End)
}

func TestRow_EndedBeforeWindowClampsToFirstColumn(t *testing.T) {
	w := Window{Origin: date(2024, 1, 1), Days: 10}
	b := model.Booking{ID: "before", Start: date(2023, 12, 1), End: date(2023, 12, 5)}

	segs := slices.Collect(RowSegments(w, []model.Booking{b}))
	require.Len(t, segs, 1)
	assert.Equal(t, 0, segs[0].Column)
	assert.False(t, segs[0].CheckIn)
	assert.False(t, segs[0].CheckOut)
}

func TestRow_EndsOnOriginDay(t *testing.T) {
	w := Window{Origin: date(2024, 1, 1), Days: 10}
	b := model.Booking{ID: "checkout", Start: date(2023, 12, 28), End: date(2024, 1, 1)}

	segs := slices.Collect(RowSegments(w, []model.Booking{b}))
	require.Len(t, segs, 1)
	assert.Equal(t, 0, segs[0].Column)
	assert.True(t, segs[0].CheckOut)
}

func TestRow_SameDayBooking(t *testing.T) {
	w := Window{Origin: date(2024, 1, 1), Days: 10}
	b := model.Booking{ID: "day", Start: date(2024, 1, 4).Add(9 * time.Hour), End: date(2024, 1, 4).Add(17 * time.Hour)}

	segs := slices.Collect(RowSegments(w, []model.Booking{b}))
	require.Len(t, segs, 1)
	assert.Equal(t, 3, segs[0].Column)
	assert.True(t, segs[0].CheckIn && segs[0].CheckOut)
	assert.True(t, segs[0].Turnover, "a same-day booking checks in and out on that day")
}

func TestRow_EmptyInputs(t *testing.T) {
	b := model.Booking{ID: "b", Start: date(2024, 1, 2), End: date(2024, 1, 3)}
	assert.Empty(t, slices.Collect(Row(Window{Origin: date(2024, 1, 1), Days: 0}, []model.Booking{b})))
	assert.Empty(t, slices.Collect(Row(Window{Origin: date(2024, 1, 1), Days: 5}, nil)))
}

func TestRow_StopsEarly(t *testing.T) {
	w := Window{Origin: date(2024, 1, 1), Days: 30}
	bookings := []model.Booking{
		{ID: "a", Start: date(2024, 1, 2), End: date(2024, 1, 4)},
		{ID: "b", Start: date(2024, 1, 6), End: date(2024, 1, 9)},
	}
	var seen []int
	for seg := range RowSegments(w, bookings) {
		seen = append(seen, seg.Column)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []int{1, 2}, seen)
}

// --- turnover ---

func TestTurnover_AnyPair(t *testing.T) {
	origin := date(2024, 1, 1)
	w := Window{Origin: origin, Days: 20}
	a := model.Booking{ID: "A", ListingID: "R", Start: origin.AddDate(0, 0, 5), End: origin.AddDate(0, 0, 8)}
	b := model.Booking{ID: "B", ListingID: "R", Start: origin.AddDate(0, 0, 8), End: origin.AddDate(0, 0, 12)}

	turn := map[int]bool{}
	for seg := range RowSegments(w, []model.Booking{a, b}) {
		turn[seg.Column] = turn[seg.Column] || seg.Turnover
	}
	assert.True(t, turn[8])
	assert.False(t, turn[5])
	assert.False(t, turn[12])

	runs := slices.Collect(Row(w, []model.Booking{a, b}))
	require.Len(t, runs, 2)
	assert.False(t, runs[0].TurnoverOnEntry)
	assert.True(t, runs[0].TurnoverOnExit)
	assert.True(t, runs[1].TurnoverOnEntry)
	assert.False(t, runs[1].TurnoverOnExit)
}

func TestTurnover_OtherListingDoesNotCount(t *testing.T) {
	origin := date(2024, 1, 1)
	w := Window{Origin: origin, Days: 20}
	mine := model.Booking{ID: "A", ListingID: "R", Start: origin.AddDate(0, 0, 2), End: origin.AddDate(0, 0, 4)}
	theirs := model.Booking{ID: "B", ListingID: "S", Start: origin.AddDate(0, 0, 4), End: origin.AddDate(0, 0, 6)}

	for seg := range RowSegments(w, []model.Booking{mine}) {
		assert.False(t, seg.Turnover)
	}
	assert.False(t, FindTurnovers([]model.Booking{mine}).On(theirs.Start))
}

func TestFindTurnovers(t *testing.T) {
	ts := FindTurnovers([]model.Booking{
		{Start: date(2024, 3, 1).Add(15 * time.Hour), End: date(2024, 3, 4).Add(11 * time.Hour)},
		{Start: date(2024, 3, 4).Add(16 * time.Hour), End: date(2024, 3, 6).Add(11 * time.Hour)},
	})
	assert.True(t, ts.On(date(2024, 3, 4).Add(23*time.Hour)))
	assert.False(t, ts.On(date(2024, 3, 1)))
	assert.False(t, ts.On(date(2024, 3, 6)))

	var zero Turnovers
	assert.False(t, zero.On(date(2024, 3, 4)))
}
