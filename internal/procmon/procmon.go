// Package procmon declares the shape of process-lifecycle notifications
// for SystemEvent upcalls (spec.md §4.4). Raw process-start/exit capture
// (fanotify/netlink connector) is an external collaborator's concern and
// stays out of scope, so this package carries only the wire shape the
// Dispatcher consumes (Sources.System) and the interface a real capture
// backend would implement to resolve a PID to a name — no concrete
// resolver lives here without a producer to feed it.
package procmon

// Event is a process lifecycle notification, already carrying whatever
// name resolution succeeded.
type Event struct {
	Exec     bool // true = process started, false = exited
	PID      int
	FileName string // best-effort, may be empty
}

// Resolver looks up the executable name for a PID. Implemented by
// whatever external process-capture backend produces Events.
type Resolver interface {
	Resolve(pid int) string
}
