package engine

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/glimmerdev/glimmerd/internal/device"
	"github.com/glimmerdev/glimmerd/internal/remote"
)

// Config is everything the Engine needs to wire up the Registry,
// Controller, and Dispatcher. Sources' HID channel is filled in by Start
// from Device, since HID polling is owned by the engine's own lifecycle
// rather than by whoever assembles Config.
type Config struct {
	Device     device.Device
	NumKeys    int
	NumSlots   int
	ScriptDir  string
	ProfileDir string
	StateFile  string
	Sources    Sources
	Remote     *remote.Bus
	Plugins    []Plugin
	Log        zerolog.Logger
}

// Engine owns the Registry, barrier Set, Profile Controller, and
// Dispatcher, and drives the main loop described in spec.md §4.8.
type Engine struct {
	cfg      Config
	Registry *Registry
	Barriers *Set

	Controller *Controller
	Dispatcher *Dispatcher

	deviceLock sync.Mutex

	log  zerolog.Logger
	stop chan struct{}
}

// New wires up a fresh Engine. It does not start the main loop or the HID
// polling goroutine — call Start for that.
func New(cfg Config) *Engine {
	reg := NewRegistry(cfg.NumKeys, cfg.NumSlots)
	barriers := NewSet()
	log := cfg.Log.With().Str("component", "engine").Logger()

	ctrl := NewController(reg, barriers, cfg.ScriptDir, cfg.NumKeys, cfg.Plugins, cfg.Remote, log)

	return &Engine{
		cfg:        cfg,
		Registry:   reg,
		Barriers:   barriers,
		Controller: ctrl,
		log:        log,
		stop:       make(chan struct{}),
	}
}

// Start launches the HID polling goroutine and sets e.Dispatcher to a
// Dispatcher wired to the full set of sources, including HID.
func (e *Engine) Start() {
	sources := e.cfg.Sources
	if e.cfg.Device != nil {
		sources.HID = startHIDSource(e.cfg.Device, e.stop)
	}
	e.Dispatcher = NewDispatcher(sources, e.Barriers)
}

// Stop signals the HID polling goroutine to exit.
func (e *Engine) Stop() {
	close(e.stop)
}
