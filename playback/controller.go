package playback

import (
	"fmt"
	"sync"

	"github.com/jedp/metronome/audio"
	"github.com/jedp/metronome/config"
	"github.com/jedp/metronome/logger"
	"github.com/jedp/metronome/pattern"
	"github.com/jedp/metronome/rhythm"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Controller bridges the reactive state source on one side and the beat
// clock and audio driver on the other. It owns the play/pause flag and the
// live {bpm, emphasis sequence} pair; the beat clock reads that pair through
// the Source interface on every tick, so updates land without restarting
// anything.
type Controller struct {
	// opMu serializes play and lifecycle transitions end to end, so a play
	// request can never bring the stream or clock back up while a teardown
	// is in flight. handleBeat takes no controller lock, so holding opMu
	// across clock.Stop's drain cannot deadlock.
	opMu sync.Mutex

	mu     sync.Mutex
	driver audio.Driver
	clock  *rhythm.Clock
	log    *logrus.Entry

	accentGain float64
	plainGain  float64

	bpm     int
	seq     pattern.Sequence
	playing bool
	live    bool // audio lifecycle is up
}

// NewController wires a controller to the given audio driver. The clock
// abstraction is injected so tests can drive scheduling deterministically.
func NewController(cfg config.MetronomeConfig, driver audio.Driver, clk clock.Clock) *Controller {
	bpm := cfg.BPM
	if bpm <= 0 {
		bpm = config.DefaultBPM
	}
	accent, plain := cfg.AccentGain, cfg.PlainGain
	if accent <= 0 {
		accent = config.AccentGain
	}
	if plain <= 0 {
		plain = config.PlainGain
	}

	c := &Controller{
		driver:     driver,
		log:        logger.GetProjectLogger(),
		accentGain: accent,
		plainGain:  plain,
		bpm:        bpm,
		seq:        pattern.Compile(cfg.Subdivisions),
	}
	c.clock = rhythm.NewClock(clk, cfg.PollInterval, c, c.handleBeat)
	return c
}

// Rhythm implements rhythm.Source. Both values come from a single critical
// section so the clock never sees a fresh tempo with a stale sequence.
func (c *Controller) Rhythm() (int, pattern.Sequence) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bpm, c.seq
}

// Playing reports the current play/pause flag.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// OnPlayStateChanged applies the latest play/pause value from the state
// source. Repeated values are no-ops. Play is deferred until the audio
// lifecycle is up, so a beat can never fire into a driver that isn't ready.
func (c *Controller) OnPlayStateChanged(playing bool) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.playing = playing
	live := c.live
	c.mu.Unlock()

	if !playing {
		c.clock.Stop()
		return
	}

	if !live {
		c.log.Warn("play requested before audio lifecycle start, deferring")
		return
	}
	if err := c.driver.StartStream(); err != nil {
		c.log.Errorf("could not start audio stream: %v", err)
		return
	}
	c.clock.Start()
}

// OnRhythmChanged applies the latest tempo and subdivision pattern from the
// state source, swapping both under one lock. A non-positive tempo is
// rejected so the clock never evaluates an interval that would make every
// tick due.
func (c *Controller) OnRhythmChanged(bpm int, subdivisions []int) error {
	if bpm <= 0 {
		return fmt.Errorf("invalid tempo: %d bpm", bpm)
	}
	seq := pattern.Compile(subdivisions)

	c.mu.Lock()
	c.bpm = bpm
	c.seq = seq
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"bpm": bpm, "beats": len(seq)}).Debug("rhythm updated")
	return nil
}

// OnAudioLifecycleStart brings the audio driver up: setup, assets, stream,
// in that order. If playback was already requested, the beat clock starts
// once the driver is live.
func (c *Controller) OnAudioLifecycleStart() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.driver.SetupStream(); err != nil {
		return fmt.Errorf("audio stream setup failed: %w", err)
	}
	if err := c.driver.LoadAssets(); err != nil {
		return fmt.Errorf("could not load audio assets: %w", err)
	}
	if err := c.driver.StartStream(); err != nil {
		return fmt.Errorf("could not start audio stream: %w", err)
	}

	c.mu.Lock()
	c.live = true
	playing := c.playing
	c.mu.Unlock()

	if playing {
		c.clock.Start()
	}
	return nil
}

// OnAudioLifecycleStop tears the audio driver down. The beat clock is halted
// first and Stop blocks until its loop has exited, so no trigger can land
// mid-teardown. The play flag is left as-is: if the host comes back to the
// foreground while playing, OnAudioLifecycleStart resumes the clock.
func (c *Controller) OnAudioLifecycleStop() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.clock.Stop()

	c.mu.Lock()
	c.live = false
	c.mu.Unlock()

	if err := c.driver.StopStream(); err != nil {
		return fmt.Errorf("could not stop audio stream: %w", err)
	}
	if err := c.driver.UnloadAssets(); err != nil {
		return fmt.Errorf("could not unload audio assets: %w", err)
	}
	if err := c.driver.TeardownStream(); err != nil {
		return fmt.Errorf("audio stream teardown failed: %w", err)
	}
	return nil
}

// handleBeat routes one due beat to the driver: gain first, then trigger.
func (c *Controller) handleBeat(ev rhythm.BeatEvent) {
	gain := c.plainGain
	if ev.Accented {
		gain = c.accentGain
	}
	c.driver.SetGain(gain)
	c.driver.TriggerBeat()
}
