// Package models holds the state rendered by the run view.
package models

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
)

// Line is one line of command output.
type Line struct {
	Text    string
	IsError bool
}

// State is the complete run view state.
type State struct {
	Title string
	PID   int

	Lines    []Line
	Viewport viewport.Model
	Spinner  spinner.Model

	Width  int
	Height int

	Running     bool
	Terminating bool

	// Final is the text of the final event, empty until the run ends.
	Final        string
	FinalIsError bool

	// Err is the last error reported while terminating.
	Err string
}
