package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBPM is the tempo used before any rhythm update arrives.
	DefaultBPM = 120

	// DefaultPollInterval is the beat clock's due-check period.
	DefaultPollInterval = 25 * time.Millisecond

	// AccentGain and PlainGain are the click levels per emphasis. The
	// accented level stays at least 4x the plain level so the downbeat reads
	// clearly at any volume.
	AccentGain = 1.8
	PlainGain  = 0.4

	// DefaultOSCAddr is where the remote control server listens.
	DefaultOSCAddr = "127.0.0.1:8765"

	// DefaultSampleRate for the bundled audio driver, in Hz.
	DefaultSampleRate = 44100
)

// MetronomeConfig represents options that configure the global behavior of
// the program.
type MetronomeConfig struct {
	// Project logger
	Logger *logrus.Logger

	// Tempo in beats per minute
	BPM int

	// Sub-beat counts per metrical group, e.g. [4] or [2,3]
	Subdivisions []int

	// Due-check period of the beat clock
	PollInterval time.Duration

	// Click levels
	AccentGain float64
	PlainGain  float64

	// Listen address for the OSC remote control
	OSCAddr string

	// Audio output sample rate in Hz
	SampleRate int
}

// NewMetronomeConfig creates a config with reasonable defaults for real usage.
func NewMetronomeConfig() (MetronomeConfig, error) {
	return MetronomeConfig{
		BPM:          DefaultBPM,
		Subdivisions: []int{4},
		PollInterval: DefaultPollInterval,
		AccentGain:   AccentGain,
		PlainGain:    PlainGain,
		OSCAddr:      DefaultOSCAddr,
		SampleRate:   DefaultSampleRate,
	}, nil
}
