package engine

import (
	"time"

	"github.com/glimmerdev/glimmerd/internal/constants"
	"github.com/glimmerdev/glimmerd/internal/device"
	"github.com/glimmerdev/glimmerd/internal/fswatch"
	"github.com/glimmerdev/glimmerd/internal/input"
	"github.com/glimmerdev/glimmerd/internal/procmon"
	"github.com/glimmerdev/glimmerd/internal/remote"
)

// barrierTimeout is how long the Dispatcher waits on a per-event-kind
// barrier before giving up on that message's fan-out for this iteration.
const barrierTimeout = constants.TimeoutConditionMillis * time.Millisecond

// Mirror, if set, receives a copy of every keyboard/non-motion-mouse
// message after it has been dispatched to workers — the "virtual input
// device" of spec.md §4.4 that lets another process observe what this one
// is doing to the real input stream. Left nil, it is simply skipped.
type Mirror func(Message)

// Dispatcher drains Sources in the fixed order spec.md §4.5 requires and
// fans each translated event out to every live worker, enforcing the
// arm-to-live-minus-failed-then-compensate rule on every barrier it uses.
type Dispatcher struct {
	Sources  Sources
	Barriers *Set
	Mirror   Mirror

	accumDX, accumDY, accumDZ int
	lastMotionFlush           time.Time
}

// NewDispatcher constructs a Dispatcher over the given sources and barrier
// set.
func NewDispatcher(sources Sources, barriers *Set) *Dispatcher {
	return &Dispatcher{Sources: sources, Barriers: barriers}
}

// armAndSend arms barrier to the current live-worker count and sends msg
// to every live worker, compensating the barrier for any worker whose
// Send fails (it has just transitioned to failed, possibly mid-broadcast).
func armAndSend(barrier *Barrier, workers []*Worker, msg Message) {
	live := 0
	for _, w := range workers {
		if !w.Failed() {
			live++
		}
	}
	if live == 0 {
		return
	}
	barrier.Arm(live)
	for _, w := range workers {
		if w.Failed() {
			continue
		}
		if err := w.Send(msg); err != nil {
			barrier.Complete()
		}
	}
}

// armSendWait is armAndSend followed by a bounded wait, the shape every
// input-event kind except SystemEvent uses.
func armSendWait(barrier *Barrier, workers []*Worker, msg Message) (timedOut bool) {
	armAndSend(barrier, workers, msg)
	return barrier.Wait(barrierTimeout)
}

func (d *Dispatcher) mirror(msg Message) {
	if d.Mirror != nil {
		d.Mirror(msg)
	}
}

// DrainSystem forwards process lifecycle events to every live worker's
// on_system_event handler. The SystemEvent barrier is armed and completed
// by workers like any other, but per spec.md §9 (resolving the original's
// commented-out wait) the Dispatcher never waits on it — a slow or wedged
// script must not be able to stall process-monitor delivery.
func (d *Dispatcher) DrainSystem(workers []*Worker) (pending bool) {
	if d.Sources.System == nil {
		return false
	}
	for i := 0; i < constants.MaxEventsPerIteration; i++ {
		select {
		case ev, ok := <-d.Sources.System:
			if !ok {
				return false
			}
			kind := SystemEventExit
			if ev.Exec {
				kind = SystemEventExec
			}
			msg := Message{Kind: MsgSystemEvent, System: SystemEvent{Kind: kind, PID: ev.PID, FileName: ev.FileName}}
			armAndSend(d.Barriers.SystemEvent, workers, msg)
		default:
			return false
		}
	}
	return len(d.Sources.System) > 0
}

// DrainFilesystem observes profile/script directory changes. It has no
// worker fan-out of its own; the caller (the main loop) uses the returned
// events to decide whether to re-scan the profile list.
func (d *Dispatcher) DrainFilesystem() []fswatch.Event {
	if d.Sources.Filesystem == nil {
		return nil
	}
	var out []fswatch.Event
	for i := 0; i < constants.MaxEventsPerIteration; i++ {
		select {
		case ev, ok := <-d.Sources.Filesystem:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
	return out
}

// DrainRemote observes remote-control commands. Like filesystem events,
// these feed the Profile Controller/Registry rather than being broadcast
// to workers.
func (d *Dispatcher) DrainRemote() []remote.Command {
	if d.Sources.Remote == nil {
		return nil
	}
	var out []remote.Command
	for i := 0; i < constants.MaxEventsPerIteration; i++ {
		select {
		case cmd, ok := <-d.Sources.Remote:
			if !ok {
				return out
			}
			out = append(out, cmd)
		default:
			return out
		}
	}
	return out
}

// DrainHID forwards control-surface reports to every live worker's
// on_hid_event handler, additionally synthesizing a KeyDown/KeyUp cycle
// when the HID code doubles as a mapped key (spec.md §4.4).
func (d *Dispatcher) DrainHID(workers []*Worker) (pending bool) {
	if d.Sources.HID == nil {
		return false
	}
	for i := 0; i < constants.MaxEventsPerIteration; i++ {
		select {
		case ev, ok := <-d.Sources.HID:
			if !ok {
				return false
			}
			d.dispatchHID(workers, ev)
		default:
			return false
		}
	}
	return len(d.Sources.HID) > 0
}

func (d *Dispatcher) dispatchHID(workers []*Worker, ev device.HIDEvent) {
	hidMsg := Message{Kind: MsgHIDEvent, HID: HIDEvent{Valid: ev.Valid, Pressed: ev.Pressed, Code: ev.Code}}
	armSendWait(d.Barriers.HIDEvent, workers, hidMsg)

	if keyIndex, ok := input.HIDCodeToKeyIndex(ev.Code); ok {
		if ev.Pressed {
			msg := Message{Kind: MsgKeyDown, KeyIndex: keyIndex}
			armSendWait(d.Barriers.KeyDown, workers, msg)
			d.mirror(msg)
		} else {
			msg := Message{Kind: MsgKeyUp, KeyIndex: keyIndex}
			armSendWait(d.Barriers.KeyUp, workers, msg)
			d.mirror(msg)
		}
	}
}

// DrainKeyboard forwards mapped key transitions to every live worker,
// discarding key-repeat events (a raw event value of 2 or higher in
// evdev terms) as spec.md §4.4 requires.
func (d *Dispatcher) DrainKeyboard(workers []*Worker) (pending bool) {
	if d.Sources.Keyboard == nil {
		return false
	}
	ch := d.Sources.Keyboard.KeyEvents()
	for i := 0; i < constants.MaxEventsPerIteration; i++ {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			if ev.Repeat {
				continue
			}
			keyIndex, known := input.EVKeyToKeyIndex(ev.Code)
			if !known {
				continue
			}
			var msg Message
			if ev.Pressed {
				msg = Message{Kind: MsgKeyDown, KeyIndex: keyIndex}
				armSendWait(d.Barriers.KeyDown, workers, msg)
			} else {
				msg = Message{Kind: MsgKeyUp, KeyIndex: keyIndex}
				armSendWait(d.Barriers.KeyUp, workers, msg)
			}
			d.mirror(msg)
		default:
			return false
		}
	}
	return len(ch) > 0
}

// DrainMouse forwards button and wheel transitions immediately, and
// accumulates relative-motion samples, flushing them as a single
// MouseMove broadcast no more often than
// constants.EventsUpcallRateLimitMillis.
func (d *Dispatcher) DrainMouse(workers []*Worker) (pending bool) {
	if d.Sources.Mouse == nil {
		return false
	}

	buttons := d.Sources.Mouse.ButtonEvents()
	wheel := d.Sources.Mouse.WheelEvents()
	motion := d.Sources.Mouse.MotionEvents()

	for i := 0; i < constants.MaxEventsPerIteration; i++ {
		select {
		case ev, ok := <-buttons:
			if !ok {
				continue
			}
			buttonIndex, known := input.EVKeyToButtonIndex(ev.Code)
			if !known {
				continue
			}
			var msg Message
			if ev.Pressed {
				msg = Message{Kind: MsgMouseButtonDown, ButtonIndex: buttonIndex}
				armSendWait(d.Barriers.MouseButtonDown, workers, msg)
			} else {
				msg = Message{Kind: MsgMouseButtonUp, ButtonIndex: buttonIndex}
				armSendWait(d.Barriers.MouseButtonUp, workers, msg)
			}
			d.mirror(msg)
		case ev, ok := <-wheel:
			if !ok {
				continue
			}
			dir := 2
			if ev.Positive {
				dir = 1
			}
			msg := Message{Kind: MsgMouseWheel, WheelDir: dir}
			armSendWait(d.Barriers.MouseOther, workers, msg)
			d.mirror(msg)
		case ev, ok := <-motion:
			if !ok {
				continue
			}
			d.accumDX += ev.DX
			d.accumDY += ev.DY
			d.accumDZ += ev.DZ
		default:
			i = constants.MaxEventsPerIteration // stop polling once all three are empty this round
		}
	}

	d.flushMotion(workers)

	return len(buttons) > 0 || len(wheel) > 0 || len(motion) > 0
}

func (d *Dispatcher) flushMotion(workers []*Worker) {
	if d.accumDX == 0 && d.accumDY == 0 && d.accumDZ == 0 {
		return
	}
	if time.Since(d.lastMotionFlush) < constants.EventsUpcallRateLimitMillis*time.Millisecond {
		return
	}

	msg := Message{Kind: MsgMouseMove, DX: d.accumDX, DY: d.accumDY, DZ: d.accumDZ}
	armSendWait(d.Barriers.MouseMove, workers, msg)

	d.accumDX, d.accumDY, d.accumDZ = 0, 0, 0
	d.lastMotionFlush = time.Now()
}
