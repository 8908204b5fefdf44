package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/fogleman/ease"
)

const (
	// DefaultSampleRate is used when no sample rate is configured.
	DefaultSampleRate = 44100

	// clickLength is the duration of one rendered click pulse.
	clickLength = 30 * time.Millisecond
)

// BeepDriver renders the metronome click through the system speaker. The
// click is synthesized rather than decoded from a sample: a pulse whose
// amplitude decays along an eased curve, giving a sharp attack and no audible
// tail.
type BeepDriver struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	gain       float64
	pulseLen   int // samples per click
	remaining  int // samples left in the in-flight click
	ready      bool
	playing    bool
}

// NewBeepDriver creates a driver for the given sample rate in Hz.
func NewBeepDriver(sampleRate int) *BeepDriver {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &BeepDriver{
		sampleRate: beep.SampleRate(sampleRate),
		gain:       1.0,
	}
}

// SetupStream initializes the speaker. Calling it on a driver that is already
// set up is a no-op.
func (d *BeepDriver) SetupStream() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ready {
		return nil
	}
	if err := speaker.Init(d.sampleRate, d.sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("could not initialize speaker: %w", err)
	}
	d.ready = true
	return nil
}

// LoadAssets computes the click pulse shape for the configured sample rate.
func (d *BeepDriver) LoadAssets() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pulseLen = d.sampleRate.N(clickLength)
	return nil
}

// StartStream attaches the click streamer to the speaker.
func (d *BeepDriver) StartStream() error {
	d.mu.Lock()
	if !d.ready {
		d.mu.Unlock()
		return fmt.Errorf("audio stream started before setup")
	}
	if d.playing {
		d.mu.Unlock()
		return nil
	}
	d.playing = true
	d.mu.Unlock()

	speaker.Play(d.streamer())
	return nil
}

// TriggerBeat re-arms the click pulse so it renders from the next sample on.
func (d *BeepDriver) TriggerBeat() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remaining = d.pulseLen
}

// SetGain sets the amplitude of the next click.
func (d *BeepDriver) SetGain(level float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gain = level
}

// StopStream silences the speaker.
func (d *BeepDriver) StopStream() error {
	d.mu.Lock()
	if !d.playing {
		d.mu.Unlock()
		return nil
	}
	d.playing = false
	d.remaining = 0
	d.mu.Unlock()

	// never hold d.mu across Clear or Close: the mixer callback takes the
	// speaker lock first and d.mu second
	speaker.Clear()
	return nil
}

// UnloadAssets drops the click pulse.
func (d *BeepDriver) UnloadAssets() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pulseLen = 0
	d.remaining = 0
	return nil
}

// TeardownStream shuts the speaker down. The driver can be set up again
// afterwards.
func (d *BeepDriver) TeardownStream() error {
	d.mu.Lock()
	if !d.ready {
		d.mu.Unlock()
		return nil
	}
	d.ready = false
	d.mu.Unlock()

	speaker.Close()
	return nil
}

// streamer renders silence except while a click pulse is in flight.
func (d *BeepDriver) streamer() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		d.mu.Lock()
		defer d.mu.Unlock()

		for i := range samples {
			var v float64
			if d.remaining > 0 {
				progress := 1.0 - float64(d.remaining)/float64(d.pulseLen)
				v = d.gain * (1.0 - ease.OutQuart(progress))
				d.remaining--
			}
			samples[i][0] = v
			samples[i][1] = v
		}
		return len(samples), true
	})
}
