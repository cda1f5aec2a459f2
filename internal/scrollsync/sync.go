// Package scrollsync keeps the pinned header and the jump-to-today control in
// step with the horizontally scrolling body, and drives the axis from scroll,
// wheel and resize input.
package scrollsync

import "math"

// HeaderOffset is the horizontal translation of the header's day track for a
// body scrolled to scrollLeft. The header is not scrollable itself; it is
// shifted so it tracks the body 1:1.
func HeaderOffset(scrollLeft int) int {
	return -scrollLeft
}

// JumpToTodayVisible reports whether the viewport has drifted from today's
// column far enough to offer a jump back.
func JumpToTodayVisible(scrollLeft, todayLeft, threshold int) bool {
	d := scrollLeft - todayLeft
	if d < 0 {
		d = -d
	}
	return d > threshold
}

// WheelDelta picks the wheel axis with the larger magnitude; vertical wins
// ties. Over the timeline both axes scroll the body horizontally.
func WheelDelta(dx, dy float64) int {
	d := dx
	if math.Abs(dy) >= math.Abs(dx) {
		d = dy
	}
	return int(math.Round(d))
}

// SizeSource delivers viewport width changes to subscribers. Subscribe
// returns a function that removes the subscription.
type SizeSource interface {
	Subscribe(fn func(width int)) (cancel func())
}

// SizeFeed is a SizeSource fed by the host's own resize notifications. Like
// the rest of the view it is used from one goroutine.
type SizeFeed struct {
	next int
	subs map[int]func(int)
}

// Subscribe registers fn for every later Publish.
func (f *SizeFeed) Subscribe(fn func(width int)) func() {
	if f.subs == nil {
		f.subs = make(map[int]func(int))
	}
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() { delete(f.subs, id) }
}

// Publish notifies every subscriber of a new width.
func (f *SizeFeed) Publish(width int) {
	for _, fn := range f.subs {
		fn(width)
	}
}

// Subscribers is the number of live subscriptions.
func (f *SizeFeed) Subscribers() int {
	return len(f.subs)
}
