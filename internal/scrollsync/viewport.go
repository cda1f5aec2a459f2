package scrollsync

import (
	"time"

	"staycal/internal/axis"
	appLog "staycal/internal/log"
)

// Viewport is the scrollable body of the timeline as seen by its host.
//
// It tracks scrollLeft, the viewport width, and the content width the host
// has actually laid out. That layout width lags the axis: when an
// observation extends the axis, the host re-renders and then calls Settle,
// which publishes the new width and applies any backward-extension scroll
// correction. Calling Settle before the new columns are drawn would read
// stale geometry and make the content jump.
type Viewport struct {
	axis *axis.Axis

	scrollLeft  int
	clientWidth int
	layoutWidth int
	measured    bool

	headerOffset int
	showJump     bool

	unsubscribe func()
}

// NewViewport wraps an axis. Nothing is measured until Resize (or a size
// source attached with Attach) reports the viewport width.
func NewViewport(a *axis.Axis) *Viewport {
	return &Viewport{
		axis:        a,
		layoutWidth: a.TotalWidth(),
	}
}

// Axis is the axis the viewport drives.
func (v *Viewport) Axis() *axis.Axis { return v.axis }

// ScrollLeft is the body's horizontal scroll offset.
func (v *Viewport) ScrollLeft() int { return v.scrollLeft }

// ClientWidth is the last measured viewport width.
func (v *Viewport) ClientWidth() int { return v.clientWidth }

// LayoutWidth is the content width the host has laid out.
func (v *Viewport) LayoutWidth() int { return v.layoutWidth }

// HeaderOffset is the translation currently applied to the header track.
func (v *Viewport) HeaderOffset() int { return v.headerOffset }

// JumpToTodayShown reports whether the jump-to-today control is visible.
func (v *Viewport) JumpToTodayShown() bool { return v.showJump }

// NeedsSettle reports whether the axis has changed since the host last laid
// it out. Hosts check it after handling input and schedule Settle for after
// the next frame.
func (v *Viewport) NeedsSettle() bool {
	return v.axis.PendingDays() > 0 || v.layoutWidth != v.axis.TotalWidth()
}

// Attach subscribes the viewport to width changes. Close removes the
// subscription.
func (v *Viewport) Attach(src SizeSource) {
	v.Close()
	v.unsubscribe = src.Subscribe(func(width int) {
		v.Resize(width)
	})
}

// Close tears down the size subscription, if any.
func (v *Viewport) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

// Resize applies a new viewport width. The first measurement scrolls to
// today; later ones keep the same fractional column at the left edge.
func (v *Viewport) Resize(width int) axis.Transition {
	oldWidth := v.axis.ColumnWidth()
	v.clientWidth = max(0, width)
	changed := v.axis.Resize(width)
	// A resize relays out everything that is materialized.
	v.layoutWidth = v.axis.TotalWidth()

	switch {
	case !v.measured:
		v.measured = true
		v.scrollLeft = v.axis.InitialScrollLeft()
	case changed:
		v.scrollLeft = v.scrollLeft * v.axis.ColumnWidth() / oldWidth
	}
	v.scrollLeft = v.clamp(v.scrollLeft)
	return v.observe()
}

// ScrollTo moves the body to x (clamped to the laid-out content) and feeds
// the result to the axis. The header follows immediately.
func (v *Viewport) ScrollTo(x int) axis.Transition {
	v.scrollLeft = v.clamp(x)
	return v.observe()
}

// ScrollBy moves the body by dx.
func (v *Viewport) ScrollBy(dx int) axis.Transition {
	return v.ScrollTo(v.scrollLeft + dx)
}

// Wheel redirects a wheel or trackpad event into horizontal scrolling using
// its dominant axis. Hosts must not also let the event scroll the page.
func (v *Viewport) Wheel(dx, dy float64) axis.Transition {
	return v.ScrollBy(WheelDelta(dx, dy))
}

// JumpToToday scrolls today's column to the left edge.
func (v *Viewport) JumpToToday() axis.Transition {
	return v.ScrollTo(v.axis.TodayIndex() * v.axis.ColumnWidth())
}

// ScrollToDay scrolls so that day's column is at the left edge. Days before
// the window go to column 0.
func (v *Viewport) ScrollToDay(day time.Time) axis.Transition {
	return v.ScrollTo(max(0, v.axis.Column(day)) * v.axis.ColumnWidth())
}

// Settle runs after the host has drawn the current axis. It adopts the new
// content width and shifts scrollLeft by the correction owed for columns
// prepended by backward extension, so the content under the viewport does
// not move on screen.
func (v *Viewport) Settle() axis.Transition {
	v.layoutWidth = v.axis.TotalWidth()
	shift := v.axis.Settle()
	if shift == 0 {
		v.sync()
		return axis.Transition{}
	}
	v.scrollLeft = v.clamp(v.scrollLeft + shift)
	return v.observe()
}

// VisibleColumns returns the first and last (inclusive) columns that
// intersect the viewport.
func (v *Viewport) VisibleColumns() (first, last int) {
	cw := v.axis.ColumnWidth()
	first = v.scrollLeft / cw
	last = (v.scrollLeft + max(1, v.clientWidth) - 1) / cw
	last = min(last, v.axis.DayCount()-1)
	return first, last
}

func (v *Viewport) observe() axis.Transition {
	tr := v.axis.Observe(axis.Observation{
		ScrollLeft:  v.scrollLeft,
		ClientWidth: v.clientWidth,
		ScrollWidth: v.layoutWidth,
	})
	if tr.Extended() {
		appLog.Debug("timeline axis extended",
			"forward", tr.Forward,
			"backward", tr.Backward,
			"origin", v.axis.Origin().Format(time.DateOnly),
			"day_count", v.axis.DayCount(),
			"scroll_left", v.scrollLeft,
		)
	}
	v.sync()
	return tr
}

func (v *Viewport) sync() {
	v.headerOffset = HeaderOffset(v.scrollLeft)
	todayLeft := v.axis.TodayIndex() * v.axis.ColumnWidth()
	v.showJump = JumpToTodayVisible(v.scrollLeft, todayLeft, v.axis.Threshold())
}

func (v *Viewport) clamp(x int) int {
	maxLeft := max(0, v.layoutWidth-v.clientWidth)
	return min(max(0, x), maxLeft)
}
