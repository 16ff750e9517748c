package views

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("39")
	ColorSuccess = lipgloss.Color("42")
	ColorError   = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("241")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			PaddingLeft(1)

	StdoutStyle = lipgloss.NewStyle()

	StderrStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	StatusRunningStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				PaddingLeft(1)

	StatusSuccessStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Bold(true).
				PaddingLeft(1)

	StatusFailedStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true).
				PaddingLeft(1)

	HintStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
