package device

import (
	"sync"

	"github.com/glimmerdev/glimmerd/internal/engine/colormap"
)

// SoftwareDevice is an in-memory Device: it keeps the last frame it was
// sent and never talks to real hardware. It plays the role the original
// driver's real USB transport would, for every deployment that either has
// no supported device attached or is running in a test/dry-run harness.
type SoftwareDevice struct {
	mu       sync.Mutex
	numKeys  int
	lastSent colormap.Map
	open     bool
}

// NewSoftwareDevice returns a SoftwareDevice sized for numKeys LEDs.
func NewSoftwareDevice(numKeys int) *SoftwareDevice {
	return &SoftwareDevice{numKeys: numKeys}
}

func (d *SoftwareDevice) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	return nil
}

func (d *SoftwareDevice) SendInitSequence() error  { return nil }
func (d *SoftwareDevice) SetLEDInitPattern() error { return nil }

// GetNextEventTimeout always reports no event: the software device has no
// control surface of its own to poll.
func (d *SoftwareDevice) GetNextEventTimeout(timeoutMillis int) (HIDEvent, error) {
	return HIDEvent{}, nil
}

func (d *SoftwareDevice) SendLEDMap(frame colormap.Map) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastSent = append(d.lastSent[:0], frame...)
	return nil
}

func (d *SoftwareDevice) SetLEDOffPattern() error {
	return d.SendLEDMap(colormap.New(d.numKeys))
}

func (d *SoftwareDevice) CloseAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	return nil
}

// LastFrame returns a copy of the most recently sent frame, for tests and
// diagnostics, or nil if no frame has been sent yet.
func (d *SoftwareDevice) LastFrame() colormap.Map {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastSent == nil {
		return nil
	}
	out := make(colormap.Map, len(d.lastSent))
	copy(out, d.lastSent)
	return out
}
