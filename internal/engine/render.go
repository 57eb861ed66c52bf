package engine

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/glimmerdev/glimmerd/internal/device"
)

// RenderFrame composites the current tick's frame if Registry.FrameGen has
// advanced past lastRendered, blending every live worker's local color map
// into the shared canvas and handing the result to dev.
//
// Workers are visited in index order, one at a time: for each live
// worker, RealizeColorMap is armed, sent, and waited on before the next
// worker is sent anything at all (spec.md §4.6 step 4; the original's
// render loop does the same). This is not just an ordering nicety —
// Canvas.BlendMap (called from a worker's own goroutine in response to
// RealizeColorMap) writes into the shared canvas with no locking of its
// own, so two workers painting concurrently would race. Serializing the
// send-then-wait per worker is what rules that out.
//
// On a barrier timeout or a device write failure the frame is dropped:
// lastRendered is left unchanged so the next tick retries compositing the
// same generation, and the device is never written a half-composited
// canvas.
//
// deviceLock is acquired with TryLock rather than Lock before the device
// write: this is load-shedding, not a correctness requirement (the
// barrier protocol already guarantees nothing else is composing a frame
// concurrently) — it only keeps a render pass from writing while another
// holder of deviceLock, such as the shutdown sequence in loop.go, is
// using the device.
func RenderFrame(reg *Registry, workers []*Worker, barriers *Set, dev device.Device, deviceLock *sync.Mutex, lastRendered uint64, log zerolog.Logger) (newLastRendered uint64, dropped bool) {
	current := reg.FrameGen.Load()
	if current <= lastRendered {
		return lastRendered, false
	}

	reg.Canvas.Clear()

	for _, w := range workers {
		if w.Failed() {
			continue
		}

		barriers.Render.Arm(1)
		if err := w.Send(Message{Kind: MsgRealizeColorMap}); err != nil {
			barriers.Render.Complete()
			continue
		}
		if timedOut := barriers.Render.Wait(barrierTimeout); timedOut {
			log.Warn().Uint64("generation", current).Int("worker", w.Index).Msg("render pass timed out, dropping frame")
			return lastRendered, true
		}
	}

	if !deviceLock.TryLock() {
		log.Debug().Uint64("generation", current).Msg("device busy, dropping frame")
		return lastRendered, true
	}
	defer deviceLock.Unlock()

	if err := dev.SendLEDMap(reg.Canvas.ToColorMap()); err != nil {
		log.Warn().Err(err).Msg("failed writing LED frame to device")
		return lastRendered, true
	}

	return current, false
}
