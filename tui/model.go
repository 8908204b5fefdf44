package main

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jedp/metronome/audio"
	"github.com/jedp/metronome/config"
	"github.com/jedp/metronome/playback"
	"k8s.io/utils/clock"
)

type model struct {
	sub          chan beatMsg // where we receive beat notifications
	controller   *playback.Controller
	bpm          int
	subdivisions []int
	spinner      spinner.Model
	beatCount    int
	lastAccented bool
	quitting     bool
}

// beatMsg is delivered once per fired beat.
type beatMsg struct {
	accented bool
}

func newModel() model {
	s := spinner.New()
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	cfg, err := config.NewMetronomeConfig()
	if err != nil {
		panic("error creating config")
	}

	sub := make(chan beatMsg, 1)
	driver := &uiDriver{
		Driver:     audio.NewBeepDriver(cfg.SampleRate),
		sub:        sub,
		accentGain: cfg.AccentGain,
	}

	controller := playback.NewController(cfg, driver, clock.RealClock{})
	if err := controller.OnAudioLifecycleStart(); err != nil {
		panic("error starting audio lifecycle: " + err.Error())
	}

	return model{
		sub:          sub,
		controller:   controller,
		bpm:          cfg.BPM,
		subdivisions: cfg.Subdivisions,
		spinner:      s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForBeat(m.sub), m.spinner.Tick)
}

// waitForBeat hands the next beat notification to the update loop.
func waitForBeat(sub chan beatMsg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// uiDriver forwards every call to the real audio driver and mirrors fired
// beats to the UI. The emphasis is recovered from the gain the controller
// set just before the trigger.
type uiDriver struct {
	audio.Driver
	sub        chan beatMsg
	accentGain float64
	lastGain   float64
}

func (d *uiDriver) SetGain(level float64) {
	d.lastGain = level
	d.Driver.SetGain(level)
}

func (d *uiDriver) TriggerBeat() {
	d.Driver.TriggerBeat()
	select {
	case d.sub <- beatMsg{accented: d.lastGain >= d.accentGain}:
	default:
		// the UI is behind; dropping a flash beats stalling the clock
	}
}
