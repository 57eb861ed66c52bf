package input

// MouseReader is the narrow surface the Dispatcher needs from a mouse
// event source, split into three independent channels since buttons,
// wheel, and motion are rate-limited and coalesced differently (spec.md
// §4.4).
type MouseReader interface {
	ButtonEvents() <-chan RawButtonEvent
	WheelEvents() <-chan RawWheelEvent
	MotionEvents() <-chan RawMotionEvent
}

// ChannelMouse is the bare-channel MouseReader used by tests and the
// software fallback.
type ChannelMouse struct {
	Buttons chan RawButtonEvent
	Wheel   chan RawWheelEvent
	Motion  chan RawMotionEvent
}

func NewChannelMouse() *ChannelMouse {
	return &ChannelMouse{
		Buttons: make(chan RawButtonEvent, 64),
		Wheel:   make(chan RawWheelEvent, 64),
		Motion:  make(chan RawMotionEvent, 64),
	}
}

func (c *ChannelMouse) ButtonEvents() <-chan RawButtonEvent { return c.Buttons }
func (c *ChannelMouse) WheelEvents() <-chan RawWheelEvent   { return c.Wheel }
func (c *ChannelMouse) MotionEvents() <-chan RawMotionEvent { return c.Motion }
