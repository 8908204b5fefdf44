package main

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case " ", "space":
			m.controller.OnPlayStateChanged(!m.controller.Playing())
		case "[":
			if m.bpm > 1 {
				m.bpm--
				m.applyRhythm()
			}
		case "]":
			m.bpm++
			m.applyRhythm()
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			// a single group of n sub-beats
			m.subdivisions = []int{int(msg.String()[0] - '0')}
			m.applyRhythm()
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case beatMsg:
		m.beatCount++
		m.lastAccented = msg.accented
		return m, waitForBeat(m.sub)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
	return m, nil
}

func (m model) applyRhythm() {
	// bpm is kept positive by the key handlers, so this cannot fail
	_ = m.controller.OnRhythmChanged(m.bpm, m.subdivisions)
}
