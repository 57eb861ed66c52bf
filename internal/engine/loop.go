package engine

import (
	"path/filepath"
	"time"

	"github.com/glimmerdev/glimmerd/internal/constants"
	"github.com/glimmerdev/glimmerd/internal/fswatch"
	"github.com/glimmerdev/glimmerd/internal/remote"
)

// Run drives the main loop of spec.md §4.8 until Registry.Quit is set,
// then performs the final drain-and-power-off sequence and returns.
func (e *Engine) Run() {
	var tick uint64
	var lastRendered uint64
	var secondStart = time.Now()
	var framesThisSecond int

	for {
		e.applyPendingSwitch()

		for _, pl := range e.cfg.Plugins {
			pl.MainLoopHook(tick)
		}

		start := time.Now()
		workers := e.Controller.Workers()

		pending := false
		pending = e.Dispatcher.DrainSystem(workers) || pending
		e.handleFilesystemEvents(e.Dispatcher.DrainFilesystem())
		e.handleRemoteCommands(e.Dispatcher.DrainRemote())
		pending = e.Dispatcher.DrainHID(workers) || pending
		pending = e.Dispatcher.DrainMouse(workers) || pending
		pending = e.Dispatcher.DrainKeyboard(workers) || pending

		var dropped bool
		lastRendered, dropped = RenderFrame(e.Registry, workers, e.Barriers, e.cfg.Device, &e.deviceLock, lastRendered, e.log)

		elapsed := time.Since(start)
		e.broadcastTick(workers, elapsed)

		if !dropped {
			framesThisSecond++
		}
		if time.Since(secondStart) >= time.Second {
			e.log.Debug().Int("fps", framesThisSecond).Msg("render rate")
			framesThisSecond = 0
			secondStart = time.Now()
		}

		elapsedMillis := uint64(elapsed / time.Millisecond)
		if elapsedMillis > constants.MainLoopDelayMillis+constants.JitterWarningThresholdMillis {
			e.log.Warn().Uint64("elapsed_ms", elapsedMillis).Msg("dropped frame: main loop iteration ran long")
		}

		if e.Registry.Quit.Load() {
			e.quit(workers)
			return
		}

		e.pace(pending, elapsedMillis)
		tick++
	}
}

func (e *Engine) pace(pending bool, elapsedMillis uint64) {
	if pending {
		return
	}
	budget := constants.MainLoopDelayMillis
	spent := elapsedMillis + constants.MainLoopDelayOffsetMillis
	if spent >= budget {
		return
	}
	time.Sleep(time.Duration(budget-spent) * time.Millisecond)
}

func (e *Engine) broadcastTick(workers []*Worker, elapsed time.Duration) {
	fraction := float64(elapsed) / float64(time.Duration(constants.MainLoopDelayMillis)*time.Millisecond)
	armAndSend(NewBarrier(), workers, Message{Kind: MsgTick, TickFraction: fraction})
}

func (e *Engine) applyPendingSwitch() {
	name, ok := e.Registry.TakePendingProfileSwitch()
	if !ok {
		return
	}
	path := filepath.Join(e.cfg.ProfileDir, name)
	if err := e.Controller.Switch(path, int(e.Registry.ActiveSlot.Load())); err != nil {
		e.log.Warn().Err(err).Str("profile", name).Msg("requested profile switch failed")
	}
}

func (e *Engine) handleFilesystemEvents(events []fswatch.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case fswatch.ProfilesChanged:
			e.log.Info().Msg("profile directory changed")
			if e.cfg.Remote != nil {
				e.cfg.Remote.NotifyProfilesChanged()
			}
		case fswatch.ScriptsChanged:
			e.log.Info().Msg("script directory changed")
		}
	}
}

// handleRemoteCommands applies slot/profile switch requests received over
// the remote-control bus. A slot request resolves to whatever profile
// file name was last associated with that slot; a direct profile request
// is a file name relative to ProfileDir.
func (e *Engine) handleRemoteCommands(commands []remote.Command) {
	for _, cmd := range commands {
		switch {
		case cmd.SwitchSlot != nil:
			slot := cmd.SwitchSlot.Slot
			name := e.Registry.SlotProfile(slot)
			if name == "" {
				e.log.Warn().Int("slot", slot).Msg("no profile associated with requested slot")
				continue
			}
			e.Registry.ActiveSlot.Store(int32(slot))
			e.Registry.RequestProfileSwitch(name)
			if e.cfg.Remote != nil {
				e.cfg.Remote.NotifyActiveSlotChanged(slot)
			}
		case cmd.SwitchProfile != nil:
			e.Registry.RequestProfileSwitch(cmd.SwitchProfile.Name)
		}
	}
}

// quit arms the shared Quit barrier to the current live-worker count,
// broadcasts Quit with the process's exit status so each script's
// on_quit hook can observe it, waits up to constants.QuitDrainDeadline
// regardless of outcome, then powers the device off.
func (e *Engine) quit(workers []*Worker) {
	e.log.Info().Msg("shutting down")

	armAndSend(e.Barriers.Quit, workers, Message{Kind: MsgQuit, ExitCode: constants.ExitOK})
	if timedOut := e.Barriers.Quit.Wait(constants.QuitDrainDeadline); timedOut {
		e.log.Warn().Msg("not all workers acknowledged quit within the drain deadline")
	}

	if e.cfg.Device != nil {
		e.deviceLock.Lock()
		defer e.deviceLock.Unlock()

		if err := e.cfg.Device.SetLEDOffPattern(); err != nil {
			e.log.Warn().Err(err).Msg("failed to set LED off pattern")
		}
		time.Sleep(constants.DeviceSettleMillis)
		if err := e.cfg.Device.CloseAll(); err != nil {
			e.log.Warn().Err(err).Msg("failed to close device")
		}
	}
}
