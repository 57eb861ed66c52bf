package input

// KeyboardReader is the narrow surface the Dispatcher needs from a
// keyboard event source; a real implementation reads evdev, a test
// implementation can just be a channel.
type KeyboardReader interface {
	KeyEvents() <-chan RawKeyEvent
}

// ChannelKeyboard is the simplest KeyboardReader: a bare channel, used by
// tests and by the software fallback when no physical keyboard grab is
// available.
type ChannelKeyboard chan RawKeyEvent

func (c ChannelKeyboard) KeyEvents() <-chan RawKeyEvent { return c }
