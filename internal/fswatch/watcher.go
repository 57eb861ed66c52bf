// Package fswatch watches the profile and script directories for changes,
// using github.com/fsnotify/fsnotify — the same library the rest of the
// corpus reaches for filesystem watching (see
// api/cmd/settings-sync-daemon/main.go and
// api/pkg/desktop/claude_jsonl_watcher.go) — debounced per spec.md §4.4 so
// a burst of writes from an editor or package manager collapses into one
// notification.
package fswatch

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// EventKind distinguishes which watched tree changed.
type EventKind int

const (
	ProfilesChanged EventKind = iota
	ScriptsChanged
)

// Event is emitted at most once per EventKind per debounce window.
type Event struct {
	Kind EventKind
}

// Watcher batches fsnotify events from the profile and script directories
// into a single debounced output channel.
type Watcher struct {
	out     chan Event
	debounce time.Duration
	log     zerolog.Logger
}

// New starts watching profileDir and scriptDir, returning a Watcher whose
// Events channel emits debounced ProfilesChanged / ScriptsChanged
// notifications. configFile, if non-empty, is watched separately and only
// logged — spec.md §4.4 requires no reload event for a config-file change.
func New(profileDir, scriptDir, configFile string, debounce time.Duration, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{profileDir, scriptDir} {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	if configFile != "" {
		_ = fw.Add(configFile) // best-effort; a missing config file is not fatal here
	}

	w := &Watcher{
		out:      make(chan Event, 8),
		debounce: debounce,
		log:      log,
	}
	go w.run(fw, profileDir, scriptDir, configFile)
	return w, nil
}

// Events returns the debounced notification channel.
func (w *Watcher) Events() <-chan Event { return w.out }

func (w *Watcher) run(fw *fsnotify.Watcher, profileDir, scriptDir, configFile string) {
	defer fw.Close()

	var profilesTimer, scriptsTimer *time.Timer
	profilesFire := make(chan struct{})
	scriptsFire := make(chan struct{})

	armProfiles := func() {
		if profilesTimer != nil {
			profilesTimer.Stop()
		}
		profilesTimer = time.AfterFunc(w.debounce, func() { profilesFire <- struct{}{} })
	}
	armScripts := func() {
		if scriptsTimer != nil {
			scriptsTimer.Stop()
		}
		scriptsTimer = time.AfterFunc(w.debounce, func() { scriptsFire <- struct{}{} })
	}

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			switch {
			case hasPrefix(ev.Name, profileDir):
				armProfiles()
			case hasPrefix(ev.Name, scriptDir):
				armScripts()
			case configFile != "" && ev.Name == configFile:
				w.log.Info().Str("path", ev.Name).Msg("config file changed, restart to apply")
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("filesystem watch error")
		case <-profilesFire:
			w.out <- Event{Kind: ProfilesChanged}
		case <-scriptsFire:
			w.out <- Event{Kind: ScriptsChanged}
		}
	}
}

func hasPrefix(name, dir string) bool {
	if dir == "" {
		return false
	}
	if len(name) < len(dir) {
		return false
	}
	return name[:len(dir)] == dir
}
