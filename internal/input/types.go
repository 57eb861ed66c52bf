// Package input models the raw keyboard/mouse event sources the
// Dispatcher drains each main-loop iteration (spec.md §4.4), translating
// them into engine.Message values by way of the mapping tables in
// keymap.go.
package input

// RawKeyEvent is one keyboard key transition as read off the input
// device, before translation to a stable key index.
type RawKeyEvent struct {
	Code    uint16
	Pressed bool
	Repeat  bool // value >= 2 in evdev terms; discarded by the Dispatcher
}

// RawButtonEvent is one mouse button transition.
type RawButtonEvent struct {
	Code    uint16
	Pressed bool
}

// RawWheelEvent is one scroll-wheel detent.
type RawWheelEvent struct {
	Positive bool
}

// RawMotionEvent is one relative-motion sample; the Dispatcher accumulates
// these between rate-limited sends rather than forwarding each one.
type RawMotionEvent struct {
	DX, DY, DZ int
}
