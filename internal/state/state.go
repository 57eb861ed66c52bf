// Package state persists the small amount of runtime state that should
// survive a restart: the active slot and which profile each slot last
// pointed at (spec.md §7). Anything load-bearing for correctness — the
// loaded profiles themselves — is re-derived at startup; this is purely a
// convenience so the daemon comes back up showing what the user last had
// selected.
package state

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog"
)

// State is the on-disk persisted shape.
type State struct {
	ActiveSlot   int      `json:"active_slot"`
	SlotProfiles []string `json:"slot_profiles"`
}

// Load reads state from path, returning a zero-value State and logging
// (never failing the caller) if the file is absent or malformed — a
// missing or corrupt state file just means the daemon starts from
// defaults, per spec.md §7.
func Load(path string, log zerolog.Logger) State {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("failed to read state file, starting fresh")
		}
		return State{}
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("state file is malformed, starting fresh")
		return State{}
	}
	return s
}

// Save writes state to path, logging (never failing the caller) on error
// — a failed save should never bring the daemon down.
func Save(path string, s State, log zerolog.Logger) {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal runtime state")
		return
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to persist runtime state")
	}
}
