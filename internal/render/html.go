package render

import (
	"embed"
	"html/template"
	"io"
	"net/url"
	"time"

	"staycal/internal/datemath"
	"staycal/internal/index"
	"staycal/internal/model"
	"staycal/internal/placement"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pages = template.Must(template.New("pages").ParseFS(templateFS, "templates/*.tmpl"))

// Page is the view model of the /calendar document. The whole materialized
// window is rendered server side; the browser only scrolls it, and asks for
// a wider window when the axis would extend.
type Page struct {
	Origin   string
	Days     int
	Today    string
	Updated  string
	Problems []string

	ColumnWidth    int
	TodayIndex     int
	TodayVisible   bool
	ExtendDays     int
	MinColumnWidth int
	VisibleColumns int
	MinThreshold   int
	// MaxDays caps the window the page may extend to; 0 means no cap.
	MaxDays int

	Columns []Column
	Rows    []Row
}

// Column is one day of the header track.
type Column struct {
	Index   int
	Date    string
	Day     int
	Weekday string
	// Month is set on the first day of a month, e.g. "Jul 2024".
	Month   string
	Weekend bool
	Today   bool
}

// Row is one listing with its label and the cells its bookings occupy.
type Row struct {
	ID   string
	Name string
	Link string

	NextCheckIn string
	// NextColumn is the column of the next check-in, clamped to 0 for days
	// before the window, or -1 if there is none.
	NextColumn int

	Cells []Cell
}

// Cell is one day of one booking.
type Cell struct {
	Column   int
	Summary  string
	Title    string
	CheckIn  bool
	CheckOut bool
	Turnover bool
}

// NewPage builds the calendar view model.
func NewPage(tl Timeline) Page {
	a := tl.Axis
	opts := a.Options()
	p := Page{
		Origin:         a.Origin().Format(time.DateOnly),
		Days:           a.DayCount(),
		Today:          a.Today().Format(time.DateOnly),
		ColumnWidth:    a.ColumnWidth(),
		TodayIndex:     a.TodayIndex(),
		TodayVisible:   a.TodayVisible(),
		ExtendDays:     opts.ExtendDays,
		MinColumnWidth: opts.MinColumnWidth,
		VisibleColumns: opts.VisibleColumns,
		MinThreshold:   opts.MinThreshold,
		Columns:        make([]Column, 0, a.DayCount()),
		Rows:           make([]Row, 0, len(tl.Listings)),
	}

	for c := range a.DayCount() {
		d := a.Day(c)
		col := Column{
			Index:   c,
			Date:    d.Format(time.DateOnly),
			Day:     d.Day(),
			Weekday: d.Weekday().String()[:3],
			Weekend: isWeekend(d),
			Today:   c == p.TodayIndex,
		}
		if d.Day() == 1 {
			col.Month = monthLabel(d)
		}
		p.Columns = append(p.Columns, col)
	}

	w := tl.Window()
	for _, l := range tl.Listings {
		row := Row{
			ID:          l.ID,
			Name:        l.Name,
			Link:        l.Link(),
			NextCheckIn: "None",
			NextColumn:  -1,
		}
		if next, ok := tl.Index.NextCheckIn(l.ID, a.Today()); ok {
			row.NextCheckIn = next.Start.Format("Monday, Jan 2")
			row.NextColumn = max(0, a.Column(next.Start))
		}
		for seg := range placement.RowSegments(w, tl.Index.For(l.ID)) {
			row.Cells = append(row.Cells, cellOf(seg))
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

func cellOf(seg placement.Segment) Cell {
	b := seg.Booking
	c := Cell{
		Column:   seg.Column,
		Title:    b.Summary + " · " + b.Start.Format("Jan 2") + " - " + b.End.Format("Jan 2"),
		CheckIn:  seg.CheckIn,
		CheckOut: seg.CheckOut,
		Turnover: seg.Turnover,
	}
	if seg.CheckIn {
		c.Summary = b.Summary
	}
	return c
}

// WriteCalendar renders the /calendar document.
func WriteCalendar(w io.Writer, p Page) error {
	return pages.ExecuteTemplate(w, "calendar", p)
}

// PropertyPage is the view model of /properties/{id}.
type PropertyPage struct {
	Listing     model.Listing
	NextCheckIn string
	Bookings    []PropertyBooking
}

// PropertyBooking is one line of a listing's booking table.
type PropertyBooking struct {
	Summary  string
	CheckIn  string
	CheckOut string
	Nights   int
	Source   string
}

// NewPropertyPage lists every booking of a listing, oldest first.
func NewPropertyPage(l model.Listing, ix index.Index, today time.Time) PropertyPage {
	p := PropertyPage{Listing: l, NextCheckIn: "None"}
	if next, ok := ix.NextCheckIn(l.ID, today); ok {
		p.NextCheckIn = next.Start.Format("Monday, Jan 2")
	}
	for _, b := range ix.For(l.ID) {
		p.Bookings = append(p.Bookings, PropertyBooking{
			Summary:  b.Summary,
			CheckIn:  b.Start.Format(time.DateOnly),
			CheckOut: b.End.Format(time.DateOnly),
			Nights:   datemath.DaysBetween(b.Start, b.End),
			Source:   sourceHost(b.Source),
		})
	}
	return p
}

// sourceHost hides the feed path, which usually carries an access token.
func sourceHost(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}

// WriteProperty renders the /properties/{id} document.
func WriteProperty(w io.Writer, p PropertyPage) error {
	return pages.ExecuteTemplate(w, "property", p)
}
