package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/axis"
	"staycal/internal/index"
	"staycal/internal/model"
	"staycal/internal/placement"
)

var today = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	beach    = model.Listing{ID: "beach", Name: "Beach"}
	bookings = []model.Booking{
		{ID: "ann", ListingID: "beach", Summary: "Ann", Source: "https://www.airbnb.com/calendar/ical/1.ics?s=x", Start: day(6, 17), End: day(6, 20)},
		{ID: "bob", ListingID: "beach", Summary: "Bob", Start: day(6, 20), End: day(6, 22)},
	}
)

func terminalTimeline(listings ...model.Listing) Timeline {
	a := axis.New(today, axis.Options{ColumnWidth: 6, MinColumnWidth: 4, VisibleColumns: 14, MinThreshold: 8})
	return Timeline{Axis: a, Listings: listings, Index: index.Build(bookings)}
}

// body strips the label column ("<label>│").
func body(l Line) string {
	_, b, _ := strings.Cut(l.Plain(), "│")
	return b
}

// --- BookingBar ---

func TestBookingBar_Text(t *testing.T) {
	b := BookingBar{}
	seg := placement.Segment{Booking: model.Booking{Summary: "Guest"}}

	assert.Equal(t, "======", b.Text(seg, 6))

	seg.CheckIn = true
	assert.Equal(t, "[Guest", b.Text(seg, 6))
	assert.Equal(t, "[Gu", b.Text(seg, 3))

	seg.CheckOut = true
	assert.Equal(t, "[Gues]", b.Text(seg, 6))
	assert.Equal(t, "]", b.Text(seg, 1))

	assert.Equal(t, "", b.Text(seg, 0))
}

func TestBookingBar_StyleIsStablePerBooking(t *testing.T) {
	b := BookingBar{}
	s1 := b.Style(placement.Segment{Booking: bookings[0], Column: 1})
	s2 := b.Style(placement.Segment{Booking: bookings[0], Column: 9})
	assert.Equal(t, s1.GetBackground(), s2.GetBackground())
}

// --- text grid ---

func TestGrid_RowAtToday(t *testing.T) {
	tl := terminalTimeline(beach)
	lines := Grid(tl, Frame{ScrollLeft: 21 * 6, Width: 60, LabelWidth: 20, Selected: -1}, nil)
	require.Len(t, lines, 3)

	assert.True(t, strings.HasPrefix(body(lines[0]), "Jun 2024 "))
	assert.True(t, strings.HasPrefix(body(lines[1]), "15 Sa 16 Su 17 Mo "))

	want := "│     " + "      " + "[Ann==" + "======" + "======" + "==][Bo" + "======" + "=====]" + "      " + "      "
	assert.Equal(t, want, body(lines[2]))
	assert.True(t, strings.HasPrefix(lines[2].Plain(), "Beach → Jun 17     │"))

	for _, l := range lines {
		assert.Equal(t, 20+60, len([]rune(l.Plain())))
	}
}

func TestGrid_HeaderAndBodyScrollTogether(t *testing.T) {
	tl := terminalTimeline(beach)
	lines := Grid(tl, Frame{ScrollLeft: 21*6 + 2, Width: 30, LabelWidth: 10, Selected: -1}, nil)

	assert.True(t, strings.HasPrefix(body(lines[1]), " Sa 16 Su 17 Mo"))
	assert.True(t, strings.HasPrefix(body(lines[2]), "    "+"      "+"[Ann=="))
}

func TestGrid_MonthLabels(t *testing.T) {
	tl := terminalTimeline(beach)
	lines := Grid(tl, Frame{ScrollLeft: 30 * 6, Width: 60, LabelWidth: 10, Selected: -1}, nil)

	want := "Jun 2024" + strings.Repeat(" ", 34) + "Jul 2024" + strings.Repeat(" ", 10)
	assert.Equal(t, want, body(lines[0]))
}

func TestGrid_EmptyState(t *testing.T) {
	tl := terminalTimeline()
	lines := Grid(tl, Frame{ScrollLeft: 0, Width: 60, Selected: -1}, nil)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2].Plain(), EmptyMessage)
}

func TestGrid_SelectedRow(t *testing.T) {
	tl := terminalTimeline(beach, model.Listing{ID: "loft", Name: "Loft"})
	lines := Grid(tl, Frame{ScrollLeft: 0, Width: 12, LabelWidth: 10, Selected: 1}, nil)
	require.Len(t, lines, 4)
	assert.Equal(t, selectStyle, lines[3][0].Style)
	assert.Equal(t, labelStyle, lines[2][0].Style)
	assert.Equal(t, "Loft     │", lines[3].Plain()[:len("Loft     │")])
}

func TestRowLabel(t *testing.T) {
	tl := terminalTimeline(beach)
	assert.Equal(t, "Beach → Jun 17", RowLabel(tl, beach))
	assert.Equal(t, "Loft", RowLabel(tl, model.Listing{ID: "loft", Name: "Loft"}))
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab  ", fit("ab", 4))
	assert.Equal(t, "abc…", fit("abcdef", 4))
	assert.Equal(t, "a", fit("abc", 1))
	assert.Equal(t, "", fit("abc", 0))
}

// --- HTML ---

func webTimeline(listings ...model.Listing) Timeline {
	return Timeline{Axis: axis.New(today, axis.Options{}), Listings: listings, Index: index.Build(bookings)}
}

func TestNewPage(t *testing.T) {
	p := NewPage(webTimeline(beach))

	assert.Equal(t, "2024-05-25", p.Origin)
	assert.Equal(t, 90, p.Days)
	assert.Equal(t, 21, p.TodayIndex)
	assert.True(t, p.TodayVisible)
	require.Len(t, p.Columns, 90)
	assert.True(t, p.Columns[21].Today)
	assert.Equal(t, "Jun 2024", p.Columns[7].Month)
	assert.Empty(t, p.Columns[8].Month)
	assert.True(t, p.Columns[21].Weekend)

	require.Len(t, p.Rows, 1)
	row := p.Rows[0]
	assert.Equal(t, "/properties/beach", row.Link)
	assert.Equal(t, 23, row.NextColumn)
	assert.Equal(t, "Monday, Jun 17", row.NextCheckIn)
	require.Len(t, row.Cells, 7)
	assert.Equal(t, "Ann", row.Cells[0].Summary)
	assert.True(t, row.Cells[0].CheckIn)
	assert.Empty(t, row.Cells[1].Summary)
	assert.True(t, row.Cells[3].CheckOut)
	assert.True(t, row.Cells[3].Turnover)
	assert.True(t, row.Cells[4].CheckIn)
	assert.Equal(t, 26, row.Cells[4].Column)
}

func TestWriteCalendar(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCalendar(&buf, NewPage(webTimeline(beach))))
	html := buf.String()

	assert.Contains(t, html, `data-ready="true"`)
	assert.Contains(t, html, `data-origin="2024-05-25"`)
	assert.Contains(t, html, `href="/properties/beach"`)
	assert.Contains(t, html, "Next check-in: Monday, Jun 17")
	assert.NotContains(t, html, "No properties yet")
}

func TestWriteCalendar_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCalendar(&buf, NewPage(webTimeline())))
	assert.Contains(t, buf.String(), "No properties yet")
	assert.Contains(t, buf.String(), `data-ready="true"`)
}

func TestPropertyPage(t *testing.T) {
	p := NewPropertyPage(beach, index.Build(bookings), today)
	assert.Equal(t, "Monday, Jun 17", p.NextCheckIn)
	require.Len(t, p.Bookings, 2)
	assert.Equal(t, 3, p.Bookings[0].Nights)
	assert.Equal(t, "www.airbnb.com", p.Bookings[0].Source)
	assert.Equal(t, "", p.Bookings[1].Source)

	var buf bytes.Buffer
	require.NoError(t, WriteProperty(&buf, p))
	assert.Contains(t, buf.String(), "<h1>Beach</h1>")
	assert.Contains(t, buf.String(), "2024-06-20")
}
