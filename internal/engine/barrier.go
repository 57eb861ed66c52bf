package engine

import (
	"sync"
	"time"
)

// Barrier is the (pendingCount, condition-variable) rendezvous described in
// spec.md §4.2: the Dispatcher arms it to the number of live workers it is
// about to broadcast to, each worker decrements it once on completion, and
// the Dispatcher waits for it to reach zero or time out.
//
// Wait uses a single time.AfterFunc per call to broadcast at the deadline,
// rather than spawning a dedicated waiter goroutine — the calling
// goroutine (always the Dispatcher; spec.md §4.2 forbids concurrent
// waiters) blocks directly in Cond.Wait, so a barrier that never completes
// leaks nothing beyond that one timer, which fires once and exits.
type Barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending int
}

// NewBarrier returns an unarmed barrier (pending == 0).
func NewBarrier() *Barrier {
	b := &Barrier{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Arm sets the pending completion count. Must only be called by the single
// Dispatcher goroutine, and never while a previous arm/wait cycle for this
// barrier is still outstanding.
func (b *Barrier) Arm(n int) {
	b.mu.Lock()
	b.pending = n
	b.mu.Unlock()
}

// Complete decrements the pending count by one. Safe to call from any
// worker goroutine; once pending reaches zero, waiters are woken. Calling
// Complete when pending is already zero is a harmless no-op (it can happen
// when a barrier the dispatcher doesn't wait on, like SystemEvent, is
// still decremented by convention).
func (b *Barrier) Complete() {
	b.mu.Lock()
	if b.pending > 0 {
		b.pending--
	}
	if b.pending == 0 {
		b.cond.Broadcast()
	}
	b.mu.Unlock()
}

// Wait blocks until pending reaches zero or timeout elapses, whichever
// comes first, returning true if it timed out.
func (b *Barrier) Wait(timeout time.Duration) (timedOut bool) {
	deadline := time.Now().Add(timeout)

	timer := time.AfterFunc(timeout, func() {
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	})
	defer timer.Stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	for b.pending > 0 {
		if !time.Now().Before(deadline) {
			return true
		}
		b.cond.Wait()
	}
	return false
}

// Pending reports the current outstanding count, mainly for diagnostics
// and tests.
func (b *Barrier) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Set is the named collection of barriers spec.md §4.2 enumerates: one per
// event kind plus the render rendezvous.
type Set struct {
	KeyDown         *Barrier
	KeyUp           *Barrier
	MouseButtonDown *Barrier
	MouseButtonUp   *Barrier
	MouseMove       *Barrier
	MouseOther      *Barrier // wheel events
	HIDEvent        *Barrier
	SystemEvent     *Barrier
	Quit            *Barrier
	Render          *Barrier // "color maps ready"
}

// NewSet constructs a fresh, unarmed barrier set.
func NewSet() *Set {
	return &Set{
		KeyDown:         NewBarrier(),
		KeyUp:           NewBarrier(),
		MouseButtonDown: NewBarrier(),
		MouseButtonUp:   NewBarrier(),
		MouseMove:       NewBarrier(),
		MouseOther:      NewBarrier(),
		HIDEvent:        NewBarrier(),
		SystemEvent:     NewBarrier(),
		Quit:            NewBarrier(),
		Render:          NewBarrier(),
	}
}

// For returns the barrier matching a message kind, or nil if that kind has
// no barrier (Tick is fire-and-forget).
func (s *Set) For(kind MessageKind) *Barrier {
	switch kind {
	case MsgKeyDown:
		return s.KeyDown
	case MsgKeyUp:
		return s.KeyUp
	case MsgMouseButtonDown:
		return s.MouseButtonDown
	case MsgMouseButtonUp:
		return s.MouseButtonUp
	case MsgMouseMove:
		return s.MouseMove
	case MsgMouseWheel:
		return s.MouseOther
	case MsgHIDEvent:
		return s.HIDEvent
	case MsgSystemEvent:
		return s.SystemEvent
	case MsgUnload, MsgQuit:
		return s.Quit
	case MsgRealizeColorMap:
		return s.Render
	default:
		return nil
	}
}
