package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/halcyon-tools/pyas3c/internal/watchui"
)

// watchuiReporter starts a watchui program for the given unit paths and
// returns the Reporter a build loop pushes status updates through.
func watchuiReporter(paths []string) (*watchui.Reporter, *tea.Program) {
	return watchui.NewReporter(paths)
}
