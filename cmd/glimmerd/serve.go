package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/glimmerdev/glimmerd/internal/config"
	"github.com/glimmerdev/glimmerd/internal/constants"
	"github.com/glimmerdev/glimmerd/internal/device"
	"github.com/glimmerdev/glimmerd/internal/engine"
	"github.com/glimmerdev/glimmerd/internal/fswatch"
	"github.com/glimmerdev/glimmerd/internal/input"
	"github.com/glimmerdev/glimmerd/internal/remote"
	"github.com/glimmerdev/glimmerd/internal/state"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon in the foreground",
	RunE:  runServe,
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(nil)
	if err != nil {
		os.Exit(constants.ExitConfigParseFailure)
	}
	log := newLogger(cfg.LogLevel)

	dev := device.NewSoftwareDevice(constants.DefaultNumKeys)
	if err := dev.Open(); err != nil {
		log.Error().Err(err).Msg("failed to open device")
		os.Exit(constants.ExitDeviceOpenFailure)
	}
	if err := dev.SendInitSequence(); err != nil {
		log.Error().Err(err).Msg("failed to send device init sequence")
		os.Exit(constants.ExitDeviceOpenFailure)
	}
	if err := dev.SetLEDInitPattern(); err != nil {
		log.Warn().Err(err).Msg("failed to set init LED pattern")
	}

	bus, err := remote.Start(cfg.NATSListenURL, log)
	if err != nil {
		return err
	}
	defer bus.Shutdown()

	var fsEvents <-chan fswatch.Event
	if watcher, err := fswatch.New(cfg.ProfileDir, cfg.ScriptDir, configPath, constants.FilesystemDebounce, log); err != nil {
		log.Warn().Err(err).Msg("filesystem watcher unavailable, profile/script reloads require a restart")
	} else {
		fsEvents = watcher.Events()
	}

	// Real evdev/HID input capture is an external collaborator's concern
	// (spec.md's driver boundary); these are the channels a capture
	// backend would feed. Left empty, the Dispatcher simply has nothing
	// to drain from them. The mouse source is only wired when
	// global.grab_mouse is set.
	var mouse input.MouseReader
	if cfg.GrabMouse {
		mouse = input.NewChannelMouse()
	}
	keyboard := input.ChannelKeyboard(make(chan input.RawKeyEvent))

	eng := engine.New(engine.Config{
		Device:     dev,
		NumKeys:    constants.DefaultNumKeys,
		NumSlots:   constants.NumSlots,
		ScriptDir:  cfg.ScriptDir,
		ProfileDir: cfg.ProfileDir,
		StateFile:  cfg.StateFile,
		Sources: engine.Sources{
			Filesystem: fsEvents,
			Remote:     bus.Commands(),
			Mouse:      mouse,
			Keyboard:   keyboard,
		},
		Remote: bus,
		Log:    log,
	})

	saved := state.Load(cfg.StateFile, log)
	eng.Registry.RestoreSlotProfiles(saved.SlotProfiles)
	eng.Registry.ActiveSlot.Store(int32(saved.ActiveSlot))

	// The daemon must come up already running whatever profile was active
	// in the previous slot, not sit idle until a remote command arrives.
	if name := eng.Registry.SlotProfile(saved.ActiveSlot); name != "" {
		eng.Registry.RequestProfileSwitch(name)
	} else {
		log.Warn().Int("slot", saved.ActiveSlot).Msg("no profile recorded for the active slot, starting with no workers")
	}

	eng.Start()
	defer eng.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg conc.WaitGroup
	wg.Go(eng.Run)
	wg.Go(func() {
		<-ctx.Done()
		eng.Registry.Quit.Store(true)
	})
	wg.Wait()

	state.Save(cfg.StateFile, state.State{
		ActiveSlot:   int(eng.Registry.ActiveSlot.Load()),
		SlotProfiles: eng.Registry.SlotProfiles(),
	}, log)

	return nil
}
