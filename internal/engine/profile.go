package engine

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/glimmerdev/glimmerd/internal/profiles"
	"github.com/glimmerdev/glimmerd/internal/remote"
)

// Controller is the Profile Controller of spec.md §4.7: it owns the
// currently-live worker set and is the only thing allowed to replace it,
// always by fail-fast verifying the incoming profile before touching
// anything about the one it would replace.
type Controller struct {
	registry  *Registry
	barriers  *Set
	scriptDir string
	numKeys   int
	plugins   []Plugin
	notify    *remote.Bus
	log       zerolog.Logger

	mu      sync.Mutex
	workers []*Worker
}

// NewController constructs a Controller with no active profile and no
// live workers.
func NewController(registry *Registry, barriers *Set, scriptDir string, numKeys int, plugins []Plugin, notify *remote.Bus, log zerolog.Logger) *Controller {
	return &Controller{
		registry:  registry,
		barriers:  barriers,
		scriptDir: scriptDir,
		numKeys:   numKeys,
		plugins:   plugins,
		notify:    notify,
		log:       log.With().Str("component", "profile_controller").Logger(),
	}
}

// Workers returns the current live worker set, for the Dispatcher and
// render pass to iterate. The returned slice must be treated as
// read-only; Switch replaces it wholesale under lock.
func (c *Controller) Workers() []*Worker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workers
}

// Switch verifies the profile at path and, only on success, tears down
// the current worker set and spawns one worker per script in the new
// profile. On verification failure the current profile and workers are
// left completely untouched and no Unload is ever sent — a bad profile
// must never interrupt whatever is already running (spec.md §4.7).
func (c *Controller) Switch(path string, slot int) error {
	p, err := profiles.Load(path, c.scriptDir)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("failed to load profile")
		return fmt.Errorf("loading profile %s: %w", path, err)
	}
	if err := p.Verify(); err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("profile failed verification, switch aborted")
		return fmt.Errorf("verifying profile %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Armed but not waited on: a switch must never stall on a wedged
	// script's Unload handler. Each worker still completes the shared
	// Quit barrier by the usual protocol (see Set.For), so Arm here is
	// what keeps Barrier.Complete from being a silent no-op.
	armAndSend(c.barriers.Quit, c.workers, Message{Kind: MsgUnload})

	for _, pl := range c.plugins {
		pl.ResetLazyState()
	}

	newWorkers := make([]*Worker, 0, len(p.Scripts))
	for i, ref := range p.Scripts {
		w, err := NewWorker(i, ref, c.numKeys, c.registry.Canvas, c.barriers, &c.registry.FrameGen, c.log)
		if err != nil {
			c.log.Error().Err(err).Str("script", ref.Name).Msg("failed to start worker, skipping script")
			continue
		}
		w.Start()
		newWorkers = append(newWorkers, w)
	}
	c.workers = newWorkers

	c.registry.SetActiveProfile(p)
	// Slot persistence keys off the profile's file name, not its
	// human-readable ID, so a restart can reopen it with nothing more
	// than ProfileDir joined to this string.
	c.registry.SetSlotProfile(slot, filepath.Base(path))

	if c.notify != nil {
		c.notify.NotifyActiveProfileChanged(p.ID)
	}

	c.log.Info().Str("profile", p.ID).Int("workers", len(newWorkers)).Msg("profile switched")
	return nil
}
