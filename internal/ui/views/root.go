package views

import (
	"github.com/Cyclone1070/codeshell/internal/ui/models"
	"github.com/charmbracelet/lipgloss"
)

// RenderRoot renders the complete run view layout.
func RenderRoot(s models.State) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(s.Title),
		s.Viewport.View(),
		RenderStatus(s),
	)
}
