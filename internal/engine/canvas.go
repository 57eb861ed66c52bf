package engine

import "github.com/glimmerdev/glimmerd/internal/engine/colormap"

// RGBA is a single LED cell's color, matching the device's native pixel
// format.
type RGBA struct {
	R, G, B, A uint8
}

// Canvas is the fixed-length, device-sized color buffer composed once per
// rendered frame. It is shared, single-writer-at-a-time state: see
// render.go for the synchronization that makes that true.
type Canvas []RGBA

// NewCanvas allocates a canvas of the given LED count, cleared to
// transparent black.
func NewCanvas(numKeys int) Canvas {
	return make(Canvas, numKeys)
}

// Clear resets every cell to transparent black (0,0,0,0).
func (c Canvas) Clear() {
	for i := range c {
		c[i] = RGBA{}
	}
}

// Blend performs a standard "over" alpha composite of src onto the
// receiver, cell by cell. Workers blend their local color map with
// BlendMap instead during RealizeColorMap handling.
func (c Canvas) Blend(src Canvas) {
	n := len(c)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		top := src[i]
		if top.A == 0 {
			continue
		}
		if top.A == 255 {
			c[i] = top
			continue
		}
		bottom := c[i]
		a := uint16(top.A)
		inv := 255 - a
		c[i] = RGBA{
			R: uint8((uint16(top.R)*a + uint16(bottom.R)*inv) / 255),
			G: uint8((uint16(top.G)*a + uint16(bottom.G)*inv) / 255),
			B: uint8((uint16(top.B)*a + uint16(bottom.B)*inv) / 255),
			A: uint8((a + uint16(bottom.A)*inv/255)),
		}
	}
}

// BlendMap performs the same "over" composite as Blend, reading directly
// from a script's local colormap.Map so a worker never has to allocate an
// intermediate Canvas just to hand its paint surface to the shared one.
func (c Canvas) BlendMap(src colormap.Map) {
	n := len(c)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		top := src[i]
		if top.A == 0 {
			continue
		}
		if top.A == 255 {
			c[i] = RGBA{R: top.R, G: top.G, B: top.B, A: top.A}
			continue
		}
		bottom := c[i]
		a := uint16(top.A)
		inv := 255 - a
		c[i] = RGBA{
			R: uint8((uint16(top.R)*a + uint16(bottom.R)*inv) / 255),
			G: uint8((uint16(top.G)*a + uint16(bottom.G)*inv) / 255),
			B: uint8((uint16(top.B)*a + uint16(bottom.B)*inv) / 255),
			A: uint8(a + uint16(bottom.A)*inv/255),
		}
	}
}

// ToColorMap converts the canvas to a colormap.Map, the shape the device
// transport accepts — device can't import engine (engine imports device),
// so this is the seam between the two.
func (c Canvas) ToColorMap() colormap.Map {
	out := colormap.New(len(c))
	for i, cell := range c {
		out[i] = colormap.Cell{R: cell.R, G: cell.G, B: cell.B, A: cell.A}
	}
	return out
}

// Clone returns an independent copy. The render pass hands the device a
// copy made by ToColorMap, not by Clone.
func (c Canvas) Clone() Canvas {
	out := make(Canvas, len(c))
	copy(out, c)
	return out
}
