package ui

import (
	"github.com/Cyclone1070/codeshell/internal/tool/shell"
	"github.com/Cyclone1070/codeshell/internal/ui/models"
	"github.com/Cyclone1070/codeshell/internal/ui/views"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultMaxLines bounds the output kept in the viewport.
const DefaultMaxLines = 10000

// chromeHeight is the number of rows used by the title and status bar.
const chromeHeight = 2

// maxBatch bounds how many queued events a single update consumes.
const maxBatch = 512

// RunModel implements tea.Model for a single command run.
type RunModel struct {
	state models.State

	events       <-chan shell.CommandOutput
	terminate    func() error
	exitOnFinish bool
	maxLines     int
}

// SpinnerFactory creates a new spinner
type SpinnerFactory func() spinner.Model

// DefaultSpinner is the spinner used when no factory is given.
func DefaultSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = views.StatusRunningStyle.PaddingLeft(0)
	return sp
}

func newRunModel(events <-chan shell.CommandOutput, opts Options, spinnerFactory SpinnerFactory) RunModel {
	if spinnerFactory == nil {
		spinnerFactory = DefaultSpinner
	}
	maxLines := opts.MaxLines
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	return RunModel{
		state: models.State{
			Title:    opts.Title,
			PID:      opts.PID,
			Viewport: viewport.New(80, 20),
			Spinner:  spinnerFactory(),
			Running:  true,
		},
		events:       events,
		terminate:    opts.Terminate,
		exitOnFinish: opts.ExitOnFinish,
		maxLines:     maxLines,
	}
}

// Internal messages
type eventMsg shell.CommandOutput
type eventBatchMsg []shell.CommandOutput
type eventsClosedMsg struct{}
type terminateResultMsg struct{ err error }

// Init starts the spinner and the event listener.
func (m RunModel) Init() tea.Cmd {
	return tea.Batch(
		m.state.Spinner.Tick,
		listenForEvents(m.events),
	)
}

// Update handles messages
func (m RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		m.state.Viewport.Width = msg.Width
		m.state.Viewport.Height = max(msg.Height-chromeHeight, 1)
		m.updateViewport()
		return m, nil

	case spinner.TickMsg:
		if !m.state.Running {
			return m, nil
		}
		var cmd tea.Cmd
		m.state.Spinner, cmd = m.state.Spinner.Update(msg)
		return m, cmd

	case eventMsg:
		return m.handleEvents([]shell.CommandOutput{shell.CommandOutput(msg)})

	case eventBatchMsg:
		return m.handleEvents(msg)

	case eventsClosedMsg:
		m.state.Running = false
		m.state.Terminating = false
		if m.exitOnFinish {
			return m, tea.Quit
		}
		return m, nil

	case terminateResultMsg:
		if msg.err != nil {
			m.state.Terminating = false
			m.state.Err = msg.err.Error()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.state.Viewport, cmd = m.state.Viewport.Update(msg)
	return m, cmd
}

// handleKeyPress handles keyboard input
func (m RunModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if !m.state.Running {
			return m, tea.Quit
		}
		if m.state.Terminating || m.terminate == nil {
			return m, nil
		}
		m.state.Terminating = true
		m.state.Err = ""
		return m, terminateCmd(m.terminate)

	case "q", "esc":
		if !m.state.Running {
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.state.Viewport, cmd = m.state.Viewport.Update(msg)
	return m, cmd
}

// handleEvents applies a batch of events and refreshes the viewport once.
func (m RunModel) handleEvents(events []shell.CommandOutput) (tea.Model, tea.Cmd) {
	appended := false
	for _, ev := range events {
		if !ev.IsFinal {
			m.appendLine(models.Line{Text: ev.Output, IsError: ev.IsError})
			appended = true
			continue
		}
		m.state.Running = false
		m.state.Terminating = false
		m.state.Final = ev.Output
		m.state.FinalIsError = ev.IsError
	}
	if appended {
		m.trimLines()
		m.updateViewport()
	}
	if !m.state.Running && m.exitOnFinish {
		return m, tea.Quit
	}
	return m, listenForEvents(m.events)
}

// View renders the UI
func (m RunModel) View() string {
	return views.RenderRoot(m.state)
}

// State returns the current view state.
func (m RunModel) State() models.State {
	return m.state
}

func (m *RunModel) appendLine(line models.Line) {
	m.state.Lines = append(m.state.Lines, line)
}

func (m *RunModel) trimLines() {
	if over := len(m.state.Lines) - m.maxLines; over > 0 {
		m.state.Lines = append(m.state.Lines[:0], m.state.Lines[over:]...)
	}
}

// updateViewport refreshes the viewport content, following the tail only when
// the view was already at the bottom.
func (m *RunModel) updateViewport() {
	follow := m.state.Viewport.AtBottom()
	m.state.Viewport.SetContent(views.FormatOutput(m.state.Lines))
	if follow {
		m.state.Viewport.GotoBottom()
	}
}

// listenForEvents blocks for the next event, then takes whatever else is
// already queued so bursts of output cost one render. A batch ends after a
// final event.
func listenForEvents(ch <-chan shell.CommandOutput) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		batch := []shell.CommandOutput{ev}
		for len(batch) < maxBatch && !ev.IsFinal {
			select {
			case ev, ok = <-ch:
				if !ok {
					// the close is seen again by the next listen
					return batchMsg(batch)
				}
				batch = append(batch, ev)
			default:
				return batchMsg(batch)
			}
		}
		return batchMsg(batch)
	}
}

func batchMsg(batch []shell.CommandOutput) tea.Msg {
	if len(batch) == 1 {
		return eventMsg(batch[0])
	}
	return eventBatchMsg(batch)
}

func terminateCmd(terminate func() error) tea.Cmd {
	return func() tea.Msg {
		return terminateResultMsg{err: terminate()}
	}
}
