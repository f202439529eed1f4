package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/logging"
	"github.com/entrhq/punch/pkg/orchestrator"
	"github.com/entrhq/punch/pkg/types"
)

// toastDuration is how long a notification stays visible.
const toastDuration = 3 * time.Second

// model represents the state of the popup.
type model struct {
	spinner spinner.Model

	// Date window, one entry per selectable day
	days     []attendance.Day
	selected []bool
	results  []attendance.DateRecord
	errs     []error
	cursor   int

	// Run state
	running bool
	runID   string
	status  string
	done    int
	total   int
	runErr  error

	toast *toastNotification

	width  int
	height int

	// Integration
	start  func(records []attendance.DateRecord) tea.Cmd
	copy   func(string) error
	logger *logging.Logger
}

// dateResultMsg carries one finished date of the current run.
type dateResultMsg struct {
	record attendance.DateRecord
	err    error
}

// runFinishedMsg signals that the current run has returned.
type runFinishedMsg struct {
	report *orchestrator.Report
	err    error
}

// jobEventMsg wraps a run event.
type jobEventMsg struct {
	event *types.JobEvent
}

// toastMsg triggers a toast notification
type toastMsg struct {
	message string
	isError bool
}

// clearToastMsg hides the toast if it has expired.
type clearToastMsg struct{}

// toastNotification represents a temporary notification message
type toastNotification struct {
	message   string
	isError   bool
	showUntil time.Time
}

func newModel(days []attendance.Day) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = headerStyle

	results := make([]attendance.DateRecord, len(days))
	for i, d := range days {
		results[i] = attendance.Pending(d, i)
	}

	return model{
		spinner:  s,
		days:     days,
		selected: make([]bool, len(days)),
		results:  results,
		errs:     make([]error, len(days)),
		cursor:   len(days) - 1,
	}
}

// Init starts the spinner.
func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

// checked returns the pending records of the checked days.
func (m *model) checked() []attendance.DateRecord {
	return attendance.Records(m.days, m.selected)
}
