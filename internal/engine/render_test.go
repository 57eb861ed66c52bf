package engine

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimmerdev/glimmerd/internal/device"
)

func TestRenderFrameBlendsAndAdvancesGeneration(t *testing.T) {
	reg := NewRegistry(4, 1)
	barriers := NewSet()
	w := newTestWorker(t, `
		function on_render() { set_color_at(1, 200, 0, 0, 255); }
	`, reg.Canvas, barriers)
	workers := []*Worker{w}

	dev := device.NewSoftwareDevice(4)
	reg.FrameGen.Store(1)

	last, dropped := RenderFrame(reg, workers, barriers, dev, &sync.Mutex{}, 0, zerolog.Nop())
	require.False(t, dropped)
	assert.Equal(t, uint64(1), last)
	assert.Equal(t, uint8(200), dev.LastFrame()[1].R)
}

func TestRenderFrameSkipsWhenGenerationUnchanged(t *testing.T) {
	reg := NewRegistry(4, 1)
	barriers := NewSet()
	dev := device.NewSoftwareDevice(4)
	reg.FrameGen.Store(3)

	last, dropped := RenderFrame(reg, nil, barriers, dev, &sync.Mutex{}, 3, zerolog.Nop())
	assert.False(t, dropped)
	assert.Equal(t, uint64(3), last)
	assert.Nil(t, dev.LastFrame())
}

func TestRenderFrameDropsOnBarrierTimeout(t *testing.T) {
	reg := NewRegistry(4, 1)
	barriers := NewSet()
	dev := device.NewSoftwareDevice(4)
	reg.FrameGen.Store(1)

	// A worker that was never Start()ed never dequeues anything, so
	// Send succeeds (the inbox just grows) but RealizeColorMap is never
	// acknowledged — simulating a wedged script without a real timeout
	// race.
	ref := loadTestScript(t, `function on_render() {}`)
	stalled, err := NewWorker(0, ref, 4, reg.Canvas, barriers, &reg.FrameGen, zerolog.Nop())
	require.NoError(t, err)

	last, dropped := RenderFrame(reg, []*Worker{stalled}, barriers, dev, &sync.Mutex{}, 0, zerolog.Nop())
	assert.True(t, dropped)
	assert.Equal(t, uint64(0), last)
	assert.Nil(t, dev.LastFrame())
}
