package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	plainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	appStyle    = lipgloss.NewStyle().Margin(1, 2, 0, 2)
)

func (m model) View() string {
	var s string

	state := "paused"
	if m.controller.Playing() {
		state = m.spinner.View() + " playing"
	}
	s += fmt.Sprintf("%s\n\nBPM: %d   Groups: %v   Beats: %d\n\n", state, m.bpm, m.subdivisions, m.beatCount)

	if m.beatCount > 0 {
		if m.lastAccented {
			s += accentStyle.Render("● accent")
		} else {
			s += plainStyle.Render("○ plain")
		}
		s += "\n"
	}

	s += helpStyle.Render("(space) play/pause  ([,]) BPM -/+  (1-9) beats per measure\n\nPress q to exit\n")

	if m.quitting {
		s += "\n"
	}
	return appStyle.Render(s)
}
