package engine

import (
	"github.com/glimmerdev/glimmerd/internal/constants"
	"github.com/glimmerdev/glimmerd/internal/device"
	"github.com/glimmerdev/glimmerd/internal/fswatch"
	"github.com/glimmerdev/glimmerd/internal/input"
	"github.com/glimmerdev/glimmerd/internal/procmon"
	"github.com/glimmerdev/glimmerd/internal/remote"
)

// Sources collects every input-event producer the Dispatcher drains, in
// the fixed order spec.md §4.5 fans them out: system, filesystem,
// remote-control, HID, mouse, keyboard.
type Sources struct {
	System     <-chan procmon.Event
	Filesystem <-chan fswatch.Event
	Remote     <-chan remote.Command
	HID        <-chan device.HIDEvent
	Mouse      input.MouseReader
	Keyboard   input.KeyboardReader
}

// startHIDSource polls dev for control-surface reports on its own
// goroutine, translating the device's blocking-with-timeout poll into a
// channel the Dispatcher can drain alongside every other source. It exits
// once stop is closed.
func startHIDSource(dev device.Device, stop <-chan struct{}) <-chan device.HIDEvent {
	out := make(chan device.HIDEvent, constants.SourceQueueCapacity)
	go func() {
		defer close(out)
		for {
			select {
			case <-stop:
				return
			default:
			}

			ev, err := dev.GetNextEventTimeout(constants.TimeoutConditionMillis)
			if err != nil || !ev.Valid {
				continue
			}
			select {
			case out <- ev:
			case <-stop:
				return
			}
		}
	}()
	return out
}
