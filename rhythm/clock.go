package rhythm

import (
	"context"
	"sync"
	"time"

	"github.com/jedp/metronome/pattern"
	"k8s.io/utils/clock"
)

// DefaultPollInterval is the period of the due-check loop. It is small
// relative to the shortest musically useful beat interval, so trigger jitter
// stays below the threshold of perception.
const DefaultPollInterval = 25 * time.Millisecond

// BeatEvent is one due beat, tagged with the emphasis the audio driver should
// render it at.
type BeatEvent struct {
	Accented bool
	At       time.Time
}

// Source supplies the live tempo and emphasis sequence. Implementations must
// return the pair from a single synchronization point so the clock never
// observes a fresh tempo paired with a stale sequence or vice versa.
type Source interface {
	Rhythm() (bpm int, seq pattern.Sequence)
}

// Clock is the beat scheduler. While running, a single background loop polls
// at a fixed short period and fires at most one beat per poll, comparing the
// monotonic clock against the time of the previous beat rather than counting
// timer expirations. A late poll therefore fires as soon as it is evaluated,
// and a tempo change applies to the very next due-check.
type Clock struct {
	mu     sync.Mutex
	clk    clock.Clock
	poll   time.Duration
	source Source
	onBeat func(BeatEvent)

	cancel   context.CancelFunc
	done     chan struct{}
	lastBeat time.Time
	cursor   int
}

// NewClock creates a stopped Clock that reads tempo and emphasis from source
// and reports due beats to onBeat.
func NewClock(clk clock.Clock, poll time.Duration, source Source, onBeat func(BeatEvent)) *Clock {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Clock{
		clk:    clk,
		poll:   poll,
		source: source,
		onBeat: onBeat,
	}
}

// Start transitions the clock to running: the cursor rewinds to the top of
// the measure and the previous-beat timestamp is set to now, so the first
// beat fires one full interval from Start. Starting a clock that is already
// running is a no-op; the active loop and its state are left untouched.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		return
	}

	c.cursor = 0
	c.lastBeat = c.clk.Now()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
}

// Stop halts the scheduling loop and blocks until it has fully exited, so no
// beat can fire once Stop has returned. Stopping a stopped clock is a no-op.
func (c *Clock) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	if cancel != nil {
		// cancel while still holding the lock, and leave done set until the
		// loop has drained: a Start arriving mid-stop sees done != nil and
		// cannot spawn a second loop alongside the dying one
		cancel()
	}
	c.mu.Unlock()

	if done == nil {
		return
	}
	<-done

	c.mu.Lock()
	if c.done == done {
		c.done = nil
	}
	c.mu.Unlock()
}

// Running reports whether the scheduling loop is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done != nil
}

func (c *Clock) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	t := c.clk.NewTimer(c.poll)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			c.evalTick(c.clk.Now())
			t.Reset(c.poll)
		}
	}
}

// evalTick runs one due-check. lastBeat is set to the actual fire time, not
// the originally scheduled one, so a delayed poll doesn't accumulate drift
// and never produces a burst of catch-up beats.
func (c *Clock) evalTick(now time.Time) {
	bpm, seq := c.source.Rhythm()
	if bpm <= 0 {
		// the controller rejects non-positive tempo before it ever reaches
		// the clock; skip defensively rather than treat every tick as due
		return
	}

	c.mu.Lock()
	if now.Sub(c.lastBeat) < BeatInterval(bpm) {
		c.mu.Unlock()
		return
	}
	if len(seq) == 0 {
		seq = pattern.Sequence{pattern.Accent}
	}
	// the sequence may have shrunk since the last beat, so the cursor wraps
	// lazily at read time rather than at increment time
	if c.cursor >= len(seq) {
		c.cursor = 0
	}
	accented := seq[c.cursor] == pattern.Accent
	c.lastBeat = now
	c.cursor++
	c.mu.Unlock()

	if c.onBeat != nil {
		c.onBeat(BeatEvent{Accented: accented, At: now})
	}
}

// BeatInterval returns the duration of one beat at the given tempo.
func BeatInterval(bpm int) time.Duration {
	return time.Duration(beatsToMilliseconds(1, float64(bpm)) * float64(time.Millisecond))
}

// beatsToMilliseconds calculates milliseconds for given beats and tempo
func beatsToMilliseconds(beats int, tempo float64) float64 {
	return (60000.0 / tempo) * float64(beats)
}
