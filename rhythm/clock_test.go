package rhythm

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jedp/metronome/pattern"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
	clocktesting "k8s.io/utils/clock/testing"
)

// stubSource hands the clock a swappable {bpm, sequence} pair the way the
// playback controller does.
type stubSource struct {
	mu  sync.Mutex
	bpm int
	seq pattern.Sequence
}

func (s *stubSource) Rhythm() (int, pattern.Sequence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bpm, s.seq
}

func (s *stubSource) set(bpm int, seq pattern.Sequence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bpm = bpm
	s.seq = seq
}

func TestBeatInterval(t *testing.T) {
	t.Parallel()

	require.Equal(t, 500*time.Millisecond, BeatInterval(120))
	require.Equal(t, 468750*time.Microsecond, BeatInterval(128))
}

func TestStartIsIdempotent(t *testing.T) {
	t.Parallel()

	base := time.Now()
	fake := clocktesting.NewFakeClock(base)
	src := &stubSource{bpm: 120, seq: pattern.Compile([]int{4})}

	c := NewClock(fake, DefaultPollInterval, src, nil)
	c.Start()
	defer c.Stop()

	// advance by less than the poll period so no tick runs, then start again
	fake.Step(10 * time.Millisecond)
	c.Start()

	c.mu.Lock()
	lastBeat, cursor := c.lastBeat, c.cursor
	c.mu.Unlock()

	// no duplicate reset: the state still reflects the first Start
	require.Equal(t, base, lastBeat)
	require.Equal(t, 0, cursor)
	require.True(t, c.Running())
}

func TestTickFiresWhenDueAndCorrectsDrift(t *testing.T) {
	t.Parallel()

	base := time.Now()
	src := &stubSource{bpm: 120, seq: pattern.Compile([]int{4})}

	var events []BeatEvent
	c := NewClock(clock.RealClock{}, 0, src, func(ev BeatEvent) {
		events = append(events, ev)
	})
	c.lastBeat = base

	// halfway through the 500ms interval: nothing is due
	c.evalTick(base.Add(250 * time.Millisecond))
	require.Empty(t, events)

	// a poll delayed well past the due threshold fires immediately
	late := base.Add(720 * time.Millisecond)
	c.evalTick(late)
	require.Len(t, events, 1)
	require.True(t, events[0].Accented)

	// lastBeat is the actual fire time, not the originally scheduled one
	require.Equal(t, late, c.lastBeat)

	// at most one beat per due-check, however late the poll ran
	c.evalTick(late)
	require.Len(t, events, 1)
}

func TestLiveTempoChangeAppliesOnNextTick(t *testing.T) {
	t.Parallel()

	base := time.Now()
	src := &stubSource{bpm: 60, seq: pattern.Compile([]int{4})}

	var events []BeatEvent
	c := NewClock(clock.RealClock{}, 0, src, func(ev BeatEvent) {
		events = append(events, ev)
	})
	c.lastBeat = base

	// fire the first beat at the old 1000ms interval
	c.evalTick(base.Add(time.Second))
	require.Len(t, events, 1)

	// speed up mid-measure: the new interval has already elapsed relative to
	// lastBeat, so the next tick fires immediately with no cursor reset
	src.set(240, pattern.Compile([]int{4}))
	c.evalTick(base.Add(1300 * time.Millisecond))
	require.Len(t, events, 2)
	require.False(t, events[1].Accented)
	require.Equal(t, 2, c.cursor)
}

func TestCursorWrapsAcrossMeasures(t *testing.T) {
	t.Parallel()

	base := time.Now()
	src := &stubSource{bpm: 120, seq: pattern.Compile([]int{3})}

	var events []BeatEvent
	c := NewClock(clock.RealClock{}, 0, src, func(ev BeatEvent) {
		events = append(events, ev)
	})
	c.lastBeat = base

	for i := 1; i <= 6; i++ {
		c.evalTick(base.Add(time.Duration(i) * 500 * time.Millisecond))
	}

	require.Len(t, events, 6)
	for i, ev := range events {
		require.Equal(t, i%3 == 0, ev.Accented, "beat %d", i)
	}
}

func TestShrinkingSequenceWrapsInsteadOfPanicking(t *testing.T) {
	t.Parallel()

	base := time.Now()
	src := &stubSource{bpm: 120, seq: pattern.Compile([]int{5})}

	var events []BeatEvent
	c := NewClock(clock.RealClock{}, 0, src, func(ev BeatEvent) {
		events = append(events, ev)
	})
	c.lastBeat = base

	// advance the cursor to 4 within the 5-beat measure
	for i := 1; i <= 4; i++ {
		c.evalTick(base.Add(time.Duration(i) * 500 * time.Millisecond))
	}
	require.Equal(t, 4, c.cursor)

	// the pattern shrinks under the cursor; the next read wraps to index 0
	src.set(120, pattern.Compile([]int{2}))
	c.evalTick(base.Add(2500 * time.Millisecond))

	require.Len(t, events, 5)
	require.True(t, events[4].Accented)
	require.Equal(t, 1, c.cursor)
}

func TestEmptySequenceFallsBackToAccent(t *testing.T) {
	t.Parallel()

	base := time.Now()
	src := &stubSource{bpm: 120, seq: nil}

	var events []BeatEvent
	c := NewClock(clock.RealClock{}, 0, src, func(ev BeatEvent) {
		events = append(events, ev)
	})
	c.lastBeat = base

	c.evalTick(base.Add(500 * time.Millisecond))
	require.Len(t, events, 1)
	require.True(t, events[0].Accented)
}

func TestStartDuringStopDrainIsNoOp(t *testing.T) {
	t.Parallel()

	src := &stubSource{bpm: 6000, seq: pattern.Compile([]int{4})}

	// hold the loop open inside a beat callback so Stop blocks draining it
	entered := make(chan struct{}, 16)
	gate := make(chan struct{})
	var count int64
	c := NewClock(clock.RealClock{}, time.Millisecond, src, func(BeatEvent) {
		atomic.AddInt64(&count, 1)
		entered <- struct{}{}
		<-gate
	})

	c.Start()
	<-entered

	stopDone := make(chan struct{})
	go func() {
		c.Stop()
		close(stopDone)
	}()

	// the stop is in flight; a Start here must not spawn a second loop
	time.Sleep(10 * time.Millisecond)
	c.Start()

	close(gate)
	<-stopDone

	// had Start spawned a fresh loop, it would still be firing beats here
	require.False(t, c.Running())
	n := atomic.LoadInt64(&count)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, n, atomic.LoadInt64(&count))
}

func TestStopHaltsTriggers(t *testing.T) {
	t.Parallel()

	// 6000 bpm gives a 10ms beat against a 2ms poll
	src := &stubSource{bpm: 6000, seq: pattern.Compile([]int{4})}

	var count int64
	c := NewClock(clock.RealClock{}, 2*time.Millisecond, src, func(BeatEvent) {
		atomic.AddInt64(&count, 1)
	})

	c.Start()
	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&count) > 0
	}, time.Second, 5*time.Millisecond)

	c.Stop()
	require.False(t, c.Running())

	// no further triggers once Stop has returned
	n := atomic.LoadInt64(&count)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, n, atomic.LoadInt64(&count))

	// stopping again is a no-op
	c.Stop()
}
