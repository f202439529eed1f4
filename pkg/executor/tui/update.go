package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/punch/pkg/attendance"
)

// Update handles all state updates for the popup.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case dateResultMsg:
		m.handleDateResult(msg)
		return m, nil

	case runFinishedMsg:
		return m, m.handleRunFinished(msg)

	case jobEventMsg:
		m.handleJobEvent(msg.event)
		return m, nil

	case toastMsg:
		return m, m.showToast(msg.message, msg.isError)

	case clearToastMsg:
		if m.toast != nil && !time.Now().Before(m.toast.showUntil) {
			m.toast = nil
		}
		return m, nil
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m *model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "c":
		return m, m.copyResults()
	}

	// The selection is frozen while a run is in progress.
	if m.running || len(m.days) == 0 {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.days)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.days) - 1
	case " ", "space", "x":
		m.selected[m.cursor] = !m.selected[m.cursor]
	case "w":
		m.selected = attendance.Weekdays(m.days)
	case "a":
		for i := range m.selected {
			m.selected[i] = true
		}
	case "n":
		m.selected = make([]bool, len(m.days))
	case "enter":
		return m, m.startRun()
	}
	return m, nil
}

// startRun launches a batch run over the checked days.
func (m *model) startRun() tea.Cmd {
	records := m.checked()
	if len(records) == 0 {
		return m.showToast("no dates selected", true)
	}
	if m.start == nil {
		return nil
	}

	for _, rec := range records {
		m.results[rec.Index] = attendance.Pending(rec.Day, rec.Index)
		m.errs[rec.Index] = nil
	}
	m.running = true
	m.runID = ""
	m.runErr = nil
	m.done = 0
	m.total = len(records)
	m.status = "starting"
	m.logger.Infof("starting batch over %d dates", len(records))
	return tea.Batch(m.start(records), m.spinner.Tick)
}

func (m *model) handleDateResult(msg dateResultMsg) {
	i := msg.record.Index
	if i < 0 || i >= len(m.results) {
		m.logger.Warnf("result for unknown position %d (%s)", i, msg.record.Day)
		return
	}
	m.results[i] = msg.record
	m.errs[i] = msg.err
	m.done++
}

func (m *model) handleRunFinished(msg runFinishedMsg) tea.Cmd {
	m.running = false
	m.status = ""
	m.runErr = msg.err

	failed := 0
	if msg.report != nil {
		m.runID = msg.report.RunID
		failed = msg.report.Failed()
	}
	switch {
	case msg.err != nil:
		m.logger.Warnf("batch ended early: %v", msg.err)
		return m.showToast("run stopped: "+msg.err.Error(), true)
	case failed > 0:
		return m.showToast(plural(failed, "date")+" failed", true)
	default:
		return m.showToast("all dates processed", false)
	}
}

// copyResults puts the result table on the system clipboard.
func (m *model) copyResults() tea.Cmd {
	if m.copy == nil {
		return nil
	}
	if err := m.copy(resultTable(m.results, m.errs)); err != nil {
		return m.showToast("copy failed: "+err.Error(), true)
	}
	return m.showToast("results copied to clipboard", false)
}

func (m *model) showToast(message string, isError bool) tea.Cmd {
	m.toast = &toastNotification{
		message:   message,
		isError:   isError,
		showUntil: time.Now().Add(toastDuration),
	}
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return clearToastMsg{}
	})
}
