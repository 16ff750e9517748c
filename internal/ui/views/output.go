package views

import (
	"strings"

	"github.com/Cyclone1070/codeshell/internal/ui/models"
)

// FormatOutput renders output lines for the viewport, stderr in red.
func FormatOutput(lines []models.Line) string {
	rendered := make([]string, len(lines))
	for i, line := range lines {
		if line.IsError {
			rendered[i] = StderrStyle.Render(line.Text)
		} else {
			rendered[i] = StdoutStyle.Render(line.Text)
		}
	}
	return strings.Join(rendered, "\n")
}
