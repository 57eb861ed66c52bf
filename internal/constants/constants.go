// Package constants holds the tunables that govern the main loop's timing
// and fan-out behavior. Values mirror the reference driver this daemon is
// modeled on.
package constants

import "time"

const (
	// NumSlots is the number of selectable profile presets.
	NumSlots = 4

	// DefaultNumKeys is the LED count of the reference device class this
	// daemon targets, used whenever a concrete Device doesn't report its
	// own count.
	DefaultNumKeys = 144

	// TargetFPS is the frame rate the render pipeline paces itself to.
	TargetFPS = 24

	// MainLoopDelayMillis is the nominal main-loop iteration period.
	MainLoopDelayMillis uint64 = 1000 / TargetFPS

	// MainLoopDelayOffsetMillis is subtracted from the pacing sleep to
	// account for scheduling overhead, so iterations land slightly ahead
	// of the nominal deadline rather than slightly behind it.
	MainLoopDelayOffsetMillis uint64 = 2

	// MaxEventsPerIteration bounds how many events a single source drain
	// will process before yielding back to the next source in line.
	MaxEventsPerIteration = 5

	// TimeoutConditionMillis bounds how long the dispatcher waits on any
	// per-event-kind barrier before giving up on that frame's fan-out.
	TimeoutConditionMillis = 25

	// EventsUpcallRateLimitMillis is the minimum spacing between two
	// MouseMove upcalls; relative motion received faster than this is
	// accumulated and flushed on the next allowed tick.
	EventsUpcallRateLimitMillis = 10

	// JitterWarningThresholdMillis is how far past the nominal period a
	// tick must run before it is logged as a dropped frame.
	JitterWarningThresholdMillis uint64 = 82

	// QuitDrainDeadline bounds how long the final shutdown sequence waits
	// for all workers to acknowledge Quit before giving up and proceeding
	// to power the device off anyway.
	QuitDrainDeadline = 2500 * time.Millisecond

	// DeviceSettleMillis is a short pause observed after the off-pattern
	// write and before the device is closed, giving the device time to
	// settle.
	DeviceSettleMillis = 50 * time.Millisecond

	// FilesystemDebounce is how long the filesystem watcher coalesces
	// bursts of notifications for the same directory.
	FilesystemDebounce = 2 * time.Second

	// SourceQueueCapacity is the buffer size of the HID source queue.
	// Generous relative to the event rates this device class produces;
	// a full queue simply back-pressures the producer thread rather than
	// blocking the dispatcher.
	SourceQueueCapacity = 4096

	// DefaultConfigFile is used when no -c/--config flag is given.
	DefaultConfigFile = "/etc/glimmerd/glimmerd.toml"

	// DefaultProfileDir and DefaultScriptDir are used when the config
	// snapshot omits global.profile_dir / global.script_dir.
	DefaultProfileDir = "/var/lib/glimmerd/profiles"
	DefaultScriptDir  = "/usr/share/glimmerd/scripts"

	// DefaultStateFile stores the small persisted runtime state.
	DefaultStateFile = "/var/lib/glimmerd/state.json"
)

// Exit codes returned by the daemon, per the external-interfaces contract.
const (
	ExitOK                  = 0
	ExitNoHIDSubsystem      = 1
	ExitNoSupportedDevice   = 2
	ExitDeviceOpenFailure   = 3
	ExitConfigParseFailure  = 4
)
