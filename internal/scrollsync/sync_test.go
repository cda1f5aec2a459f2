package scrollsync

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/axis"
)

var today = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func mounted(t *testing.T, width int) *Viewport {
	t.Helper()
	v := NewViewport(axis.New(today, axis.Options{}))
	v.Resize(width)
	require.False(t, v.NeedsSettle(), "mounting must not extend the axis")
	return v
}

// --- pure helpers ---

func TestHeaderOffset(t *testing.T) {
	assert.Equal(t, 0, HeaderOffset(0))
	assert.Equal(t, -480, HeaderOffset(480))
}

func TestJumpToTodayVisible(t *testing.T) {
	assert.False(t, JumpToTodayVisible(1000, 1000, 200))
	assert.False(t, JumpToTodayVisible(1200, 1000, 200))
	assert.True(t, JumpToTodayVisible(1201, 1000, 200))
	assert.True(t, JumpToTodayVisible(799, 1000, 200))
}

func TestWheelDelta(t *testing.T) {
	assert.Equal(t, -120, WheelDelta(3, -120))
	assert.Equal(t, 50, WheelDelta(50, 10))
	assert.Equal(t, 7, WheelDelta(-7, 7), "vertical wins ties")
	assert.Equal(t, 0, WheelDelta(0, 0))
}

func TestSizeFeed(t *testing.T) {
	var feed SizeFeed
	var got []int
	cancel := feed.Subscribe(func(w int) { got = append(got, w) })
	assert.Equal(t, 1, feed.Subscribers())

	feed.Publish(10)
	cancel()
	feed.Publish(20)

	assert.Equal(t, []int{10}, got)
	assert.Equal(t, 0, feed.Subscribers())
}

// --- viewport ---

func TestViewport_MountScrollsToToday(t *testing.T) {
	v := mounted(t, 800)

	assert.Equal(t, 114, v.Axis().ColumnWidth())
	assert.Equal(t, 21*114, v.ScrollLeft())
	assert.Equal(t, -21*114, v.HeaderOffset())
	assert.False(t, v.JumpToTodayShown())

	first, last := v.VisibleColumns()
	assert.Equal(t, 21, first)
	assert.Equal(t, 28, last)
}

func TestViewport_ZeroWidthMeasurement(t *testing.T) {
	v := NewViewport(axis.New(today, axis.Options{}))
	v.Resize(0)
	assert.Equal(t, 24, v.Axis().ColumnWidth())
	assert.Equal(t, 21*24, v.ScrollLeft())
}

func TestViewport_HeaderTracksEveryScroll(t *testing.T) {
	v := mounted(t, 800)
	for _, x := range []int{900, 1500, 4321, 2600} {
		v.ScrollTo(x)
		assert.Equal(t, -v.ScrollLeft(), v.HeaderOffset())
	}
}

func TestViewport_BackwardExtensionCompensates(t *testing.T) {
	v := mounted(t, 800)
	a := v.Axis()

	v.ScrollTo(300)
	require.Equal(t, 90, a.DayCount())
	pinned := a.Day(0)

	tr := v.ScrollTo(100)
	require.True(t, tr.Backward)
	assert.True(t, v.NeedsSettle())
	// The host still shows the old layout: pinned at column 0, scrolled by 100.
	before := 0 - v.ScrollLeft()
	// Until the host settles, nothing moves.
	assert.Equal(t, 100, v.ScrollLeft())
	assert.Equal(t, 90*114, v.LayoutWidth())

	v.Settle()
	assert.False(t, v.NeedsSettle())
	assert.Equal(t, 150*114, v.LayoutWidth())
	assert.Equal(t, 100+60*114, v.ScrollLeft())

	after := a.Offset(a.Column(pinned)) - v.ScrollLeft()
	assert.Equal(t, before, after)
	assert.Equal(t, -v.ScrollLeft(), v.HeaderOffset())
}

func TestViewport_ForwardExtensionOncePerLayout(t *testing.T) {
	v := mounted(t, 800)
	a := v.Axis()

	for range 10 {
		v.ScrollTo(1 << 30)
	}
	assert.Equal(t, 150, a.DayCount())
	assert.True(t, v.NeedsSettle())

	v.Settle()
	assert.Equal(t, 150*114, v.LayoutWidth())
	assert.Equal(t, 150, a.DayCount(), "settling a forward extension does not re-trigger it")

	v.ScrollTo(1 << 30)
	assert.Equal(t, 210, a.DayCount())
}

func TestViewport_JumpToToday(t *testing.T) {
	v := mounted(t, 800)
	v.ScrollTo(6000)
	require.True(t, v.JumpToTodayShown())

	v.JumpToToday()
	assert.Equal(t, v.Axis().TodayIndex()*v.Axis().ColumnWidth(), v.ScrollLeft())
	assert.Equal(t, -v.ScrollLeft(), v.HeaderOffset())
	assert.False(t, v.JumpToTodayShown())
}

func TestViewport_ScrollToDay(t *testing.T) {
	v := mounted(t, 800)
	a := v.Axis()

	v.ScrollToDay(today.AddDate(0, 0, 10))
	assert.Equal(t, 31*114, v.ScrollLeft())

	// Before the window: column 0, which in turn extends backward.
	tr := v.ScrollToDay(today.AddDate(-1, 0, 0))
	assert.Equal(t, 0, v.ScrollLeft())
	assert.True(t, tr.Backward)
	assert.Equal(t, 150, a.DayCount())
}

func TestViewport_Wheel(t *testing.T) {
	v := mounted(t, 800)
	start := v.ScrollLeft()

	v.Wheel(3, 120)
	assert.Equal(t, start+120, v.ScrollLeft())
	v.Wheel(-40, 5)
	assert.Equal(t, start+80, v.ScrollLeft())
	assert.Equal(t, -v.ScrollLeft(), v.HeaderOffset())
}

func TestViewport_ResizeKeepsLeftColumn(t *testing.T) {
	v := mounted(t, 800)
	a := v.Axis()
	origin, days := a.Origin(), a.DayCount()

	v.Resize(1400)
	assert.Equal(t, 200, a.ColumnWidth())
	assert.Equal(t, 21*200, v.ScrollLeft())
	assert.Equal(t, origin, a.Origin())
	assert.Equal(t, days, a.DayCount())
}

func TestViewport_AttachAndClose(t *testing.T) {
	var feed SizeFeed
	v := NewViewport(axis.New(today, axis.Options{}))
	v.Attach(&feed)

	feed.Publish(700)
	assert.Equal(t, 100, v.Axis().ColumnWidth())
	assert.Equal(t, 700, v.ClientWidth())

	v.Close()
	assert.Equal(t, 0, feed.Subscribers())
	feed.Publish(1400)
	assert.Equal(t, 100, v.Axis().ColumnWidth())

	v.Close() // idempotent
}

func TestViewport_RandomInputKeepsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	v := mounted(t, 800)
	a := v.Axis()
	prev := a.DayCount()

	for i := 0; i < 3000; i++ {
		switch rng.Intn(6) {
		case 0:
			v.Resize(rng.Intn(1600))
		case 1:
			v.Settle()
		case 2:
			v.Wheel(rng.Float64()*400-200, rng.Float64()*400-200)
		case 3:
			v.JumpToToday()
		default:
			v.ScrollTo(rng.Intn(a.TotalWidth() + 1))
		}
		require.GreaterOrEqual(t, a.DayCount(), prev)
		require.GreaterOrEqual(t, v.ScrollLeft(), 0)
		require.LessOrEqual(t, v.ScrollLeft(), max(0, v.LayoutWidth()-v.ClientWidth()))
		require.Equal(t, -v.ScrollLeft(), v.HeaderOffset())
		prev = a.DayCount()
	}
}
