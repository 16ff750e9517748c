package views

import (
	"fmt"

	"github.com/Cyclone1070/codeshell/internal/ui/models"
)

// RenderStatus renders the status bar below the output.
func RenderStatus(s models.State) string {
	var status string
	switch {
	case s.Running && s.Terminating:
		status = StatusFailedStyle.Render(fmt.Sprintf("%s Terminating", s.Spinner.View()))
	case s.Running:
		label := "Running"
		if s.PID > 0 {
			label = fmt.Sprintf("Running (pid %d)", s.PID)
		}
		status = StatusRunningStyle.Render(fmt.Sprintf("%s %s", s.Spinner.View(), label))
	case s.FinalIsError:
		status = StatusFailedStyle.Render("✘ " + s.Final)
	case s.Final != "":
		status = StatusSuccessStyle.Render("✔ " + s.Final)
	default:
		status = StatusFailedStyle.Render("✘ Output closed")
	}

	if s.Err != "" {
		status += "  " + StderrStyle.Render(s.Err)
	}

	hint := "q: quit"
	if s.Running {
		hint = "ctrl+c: terminate"
	}
	return fmt.Sprintf("%s  %s", status, HintStyle.Render(hint))
}
