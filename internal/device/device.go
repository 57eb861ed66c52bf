// Package device models the keyboard's LED transport as a narrow
// interface, per spec.md §6 ("the wire protocol is out of scope; treat
// the device as an opaque transport"). The concrete wire protocol a real
// Vulcan-class keyboard speaks is exactly what spec.md excludes; only the
// shape of the collaborator the render pipeline needs is kept.
package device

import "github.com/glimmerdev/glimmerd/internal/engine/colormap"

// HIDEvent is one report read off the device's control-surface endpoint.
type HIDEvent struct {
	Valid   bool
	Pressed bool
	Code    uint16
}

// Device is the transport surface the render pipeline and main loop drive.
// GetNextEventTimeout must return promptly (a zero-value, !Valid HIDEvent)
// when no report arrives within the timeout rather than blocking
// indefinitely — the engine's HID source goroutine calls it in a loop and
// checks for shutdown between calls.
type Device interface {
	Open() error
	SendInitSequence() error
	SetLEDInitPattern() error
	GetNextEventTimeout(timeoutMillis int) (HIDEvent, error)
	SendLEDMap(frame colormap.Map) error
	SetLEDOffPattern() error
	CloseAll() error
}
