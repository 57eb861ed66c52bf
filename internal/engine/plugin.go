package engine

// Plugin is the generalized form of spec.md §4.7's "reset the audio
// backend" step: any subsystem that keeps lazily-initialized state tied
// to the previously active profile and needs a chance to drop it across a
// profile switch. The daemon ships no built-in plugins; the hook exists
// for the same reason the original kept an audio-backend reset call
// sitting in its profile-switch path, generalized so it is not hardcoded
// to one specific backend.
type Plugin interface {
	// MainLoopHook runs once per main-loop tick, before event dispatch.
	MainLoopHook(tick uint64)

	// ResetLazyState is called on every registered plugin immediately
	// after a profile switch is accepted, before the new profile's
	// workers are spawned.
	ResetLazyState()
}
