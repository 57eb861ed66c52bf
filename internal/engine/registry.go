package engine

import (
	"sync"
	"sync/atomic"

	"github.com/glimmerdev/glimmerd/internal/profiles"
)

// Registry is the process-wide state described in spec.md §4.1: a narrow
// surface of globals, collected here into a single owned value (per the
// re-architecting note in spec.md §9) rather than package-level statics,
// so every field still has exactly one writer in steady state but nothing
// is reachable without a reference to the Engine that owns it.
type Registry struct {
	ActiveSlot atomic.Int32
	Brightness atomic.Int32 // 0..100, percent
	Quit       atomic.Bool
	FrameGen   atomic.Uint64

	// Canvas is intentionally lock-free: the render pass protocol (render.go)
	// already guarantees a single writer at a time across the whole
	// process, so a mutex here would protect against a race that the
	// barrier protocol has already ruled out.
	Canvas Canvas

	mu                 sync.Mutex
	activeProfile      *profiles.Profile
	pendingProfileName *string
	slotProfiles       []string
}

// NewRegistry allocates a registry with a canvas sized for numKeys LEDs and
// numSlots profile slots.
func NewRegistry(numKeys, numSlots int) *Registry {
	r := &Registry{
		Canvas:       NewCanvas(numKeys),
		slotProfiles: make([]string, numSlots),
	}
	r.Brightness.Store(100)
	return r
}

// ActiveProfile returns the currently active profile, or nil before the
// first successful switch.
func (r *Registry) ActiveProfile() *profiles.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeProfile
}

// SetActiveProfile assigns the active profile (called only by the Profile
// Controller after a successful switch).
func (r *Registry) SetActiveProfile(p *profiles.Profile) {
	r.mu.Lock()
	r.activeProfile = p
	r.mu.Unlock()
}

// RequestProfileSwitch records a pending profile-name switch request, the
// "poor-man's switch request channel" of spec.md §4.1.
func (r *Registry) RequestProfileSwitch(name string) {
	r.mu.Lock()
	r.pendingProfileName = &name
	r.mu.Unlock()
}

// TakePendingProfileSwitch returns and clears any pending switch request.
func (r *Registry) TakePendingProfileSwitch() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pendingProfileName == nil {
		return "", false
	}
	name := *r.pendingProfileName
	r.pendingProfileName = nil
	return name, true
}

// SlotProfile returns the profile name/path associated with a slot.
func (r *Registry) SlotProfile(slot int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot < 0 || slot >= len(r.slotProfiles) {
		return ""
	}
	return r.slotProfiles[slot]
}

// SetSlotProfile updates the slot→profile association for one slot.
func (r *Registry) SetSlotProfile(slot int, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot < 0 || slot >= len(r.slotProfiles) {
		return
	}
	r.slotProfiles[slot] = name
}

// SlotProfiles returns a copy of the full slot→profile mapping, used for
// persisting runtime state.
func (r *Registry) SlotProfiles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.slotProfiles))
	copy(out, r.slotProfiles)
	return out
}

// RestoreSlotProfiles seeds the slot→profile mapping, e.g. from persisted
// state at startup.
func (r *Registry) RestoreSlotProfiles(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < len(r.slotProfiles) && i < len(names); i++ {
		r.slotProfiles[i] = names[i]
	}
}
