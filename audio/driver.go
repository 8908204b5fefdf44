package audio

// Driver is the capability surface the timing core drives. Lifecycle calls
// (setup/load/start and stop/unload/teardown) are host-driven and idempotent;
// TriggerBeat and SetGain are called once per due beat by the beat clock.
type Driver interface {
	// SetupStream prepares the output stream. Called on lifecycle start,
	// before any trigger can fire.
	SetupStream() error

	// LoadAssets prepares the click sound.
	LoadAssets() error

	// StartStream begins playback of the (initially silent) stream.
	StartStream() error

	// TriggerBeat renders one click at the gain set by the preceding SetGain.
	TriggerBeat()

	// SetGain sets the level of the next click.
	SetGain(level float64)

	// StopStream silences the output stream.
	StopStream() error

	// UnloadAssets releases the click sound.
	UnloadAssets() error

	// TeardownStream releases the output stream.
	TeardownStream() error
}
