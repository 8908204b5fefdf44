package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	m := newModel()

	err := tea.NewProgram(m).Start()

	// tear the audio lifecycle down on every exit path, including a failed
	// program start
	if stopErr := m.controller.OnAudioLifecycleStop(); stopErr != nil {
		fmt.Println("Error stopping audio:", stopErr)
	}

	if err != nil {
		fmt.Println("Error running program:", err)
		os.Exit(1)
	}
}
