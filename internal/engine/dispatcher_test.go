package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimmerdev/glimmerd/internal/input"
)

func TestDispatcherKeyboardHappyPath(t *testing.T) {
	canvas := NewCanvas(64)
	barriers := NewSet()
	w := newTestWorker(t, `
		var lastIndex = -1;
		function on_key_down(index) { lastIndex = index; set_color_at(index, 9, 9, 9, 255); }
	`, canvas, barriers)
	workers := []*Worker{w}

	kb := make(chan input.RawKeyEvent, 4)
	kb <- input.RawKeyEvent{Code: 16, Pressed: true} // mapped to key index 16 in keymap.go

	d := NewDispatcher(Sources{Keyboard: input.ChannelKeyboard(kb)}, barriers)
	pending := d.DrainKeyboard(workers)

	assert.False(t, pending)
	assert.False(t, w.Failed())

	barriers.Render.Arm(1)
	require.NoError(t, w.Send(Message{Kind: MsgRealizeColorMap}))
	assert.False(t, barriers.Render.Wait(time.Second))
	assert.Equal(t, uint8(9), canvas[16].R)
}

func TestDispatcherSkipsFailedWorkerAndCompensatesBarrier(t *testing.T) {
	canvas := NewCanvas(64)
	barriers := NewSet()

	failing := newTestWorker(t, `function on_key_down(index) { throw new Error("boom"); }`, canvas, barriers)
	healthy := newTestWorker(t, `function on_key_down(index) { set_color_at(index, 7, 0, 0, 255); }`, canvas, barriers)
	workers := []*Worker{failing, healthy}

	kb := make(chan input.RawKeyEvent, 4)
	kb <- input.RawKeyEvent{Code: 16, Pressed: true}

	d := NewDispatcher(Sources{Keyboard: input.ChannelKeyboard(kb)}, barriers)
	d.DrainKeyboard(workers)

	select {
	case <-failing.Done():
	case <-time.After(time.Second):
		t.Fatal("failing worker did not terminate")
	}
	assert.True(t, failing.Failed())

	// second dispatch: barrier must still complete with only one live worker
	kb <- input.RawKeyEvent{Code: 16, Pressed: true}
	d.DrainKeyboard(workers)

	barriers.Render.Arm(1) // only the healthy worker is still live
	require.NoError(t, healthy.Send(Message{Kind: MsgRealizeColorMap}))
	assert.False(t, barriers.Render.Wait(time.Second))
	assert.Equal(t, uint8(7), canvas[16].R)

	assert.ErrorIs(t, failing.Send(Message{Kind: MsgKeyDown}), ErrWorkerFailed)
}

func TestDispatcherCoalescesMouseMotion(t *testing.T) {
	canvas := NewCanvas(4)
	barriers := NewSet()
	w := newTestWorker(t, `
		var dxSeen = 0;
		var moves = 0;
		function on_mouse_move(dx, dy, dz) { dxSeen += dx; moves++; set_color_at(0, dxSeen, moves, 0, 255); }
	`, canvas, barriers)
	workers := []*Worker{w}

	mouse := input.NewChannelMouse()
	mouse.Motion <- input.RawMotionEvent{DX: 3}
	mouse.Motion <- input.RawMotionEvent{DX: 4}
	mouse.Motion <- input.RawMotionEvent{DX: 5}

	d := NewDispatcher(Sources{Mouse: mouse}, barriers)
	d.DrainMouse(workers)

	// accumulated 12 total, flushed in a single MouseMove since the
	// rate limiter window hasn't elapsed between the three samples
	assert.False(t, w.Failed())

	barriers.Render.Arm(1)
	require.NoError(t, w.Send(Message{Kind: MsgRealizeColorMap}))
	assert.False(t, barriers.Render.Wait(time.Second))
	assert.Equal(t, uint8(12), canvas[0].R, "sum of dx across all MouseMove upcalls")
	assert.Equal(t, uint8(1), canvas[0].G, "number of MouseMove upcalls")
}
