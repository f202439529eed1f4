package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/orchestrator"
	"github.com/entrhq/punch/pkg/types"
)

// 2024-03-10 (Sun) .. 2024-03-15 (Fri)
func testModel(t *testing.T) (*model, *[][]attendance.DateRecord) {
	t.Helper()
	m := newModel(attendance.SelectableDates(time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)))
	require.Len(t, m.days, 6)

	var started [][]attendance.DateRecord
	m.start = func(records []attendance.DateRecord) tea.Cmd {
		started = append(started, records)
		return func() tea.Msg { return nil }
	}
	return &m, &started
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	return cmd
}

func TestNewModel(t *testing.T) {
	m, _ := testModel(t)

	assert.Equal(t, 5, m.cursor, "cursor starts on today")
	assert.Equal(t, make([]bool, 6), m.selected)
	for i, rec := range m.results {
		assert.Equal(t, attendance.Pending(m.days[i], i), rec)
	}
}

func TestModel_Selection(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want []bool
	}{
		{"toggle today", []string{" "}, []bool{false, false, false, false, false, true}},
		{"toggle twice", []string{" ", " "}, []bool{false, false, false, false, false, false}},
		{"move and toggle", []string{"up", "up", "x"}, []bool{false, false, false, true, false, false}},
		{"cursor stops at the top", []string{"g", "up", " "}, []bool{true, false, false, false, false, false}},
		{"weekdays", []string{"w"}, []bool{false, true, true, true, true, true}},
		{"all", []string{"a"}, []bool{true, true, true, true, true, true}},
		{"none after all", []string{"a", "n"}, []bool{false, false, false, false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := testModel(t)
			press(m, tt.keys...)
			assert.Equal(t, tt.want, m.selected)
		})
	}
}

func TestModel_EnterWithoutSelection(t *testing.T) {
	m, started := testModel(t)

	cmd := press(m, "enter")
	assert.NotNil(t, cmd)
	assert.Empty(t, *started)
	assert.False(t, m.running)
	require.NotNil(t, m.toast)
	assert.True(t, m.toast.isError)
	assert.Contains(t, m.View(), "no dates selected")
}

func TestModel_RunLifecycle(t *testing.T) {
	m, started := testModel(t)
	press(m, "w", "enter")

	require.Len(t, *started, 1)
	records := (*started)[0]
	require.Len(t, records, 5)
	assert.Equal(t, attendance.Day{Year: 2024, Month: 3, Date: 11}, records[0].Day)
	assert.Equal(t, 1, records[0].Index)
	assert.True(t, m.running)
	assert.Equal(t, 5, m.total)

	// Selection is frozen while running
	press(m, " ", "n")
	assert.Equal(t, []bool{false, true, true, true, true, true}, m.selected)

	m.Update(jobEventMsg{event: types.NewRunStartEvent("run-3", 5)})
	m.Update(jobEventMsg{event: types.NewPhaseEvent("run-3", "2024-03-11", 1, "awaiting-summary")})
	assert.Contains(t, m.View(), "0/5 2024-03-11: awaiting-summary")

	filed := records[0]
	filed.State, filed.Next = attendance.Unmarked, attendance.Complete
	m.Update(dateResultMsg{record: filed})

	normal := records[1]
	normal.State, normal.Next = attendance.Complete, attendance.Complete
	m.Update(dateResultMsg{record: normal})

	failed := records[2]
	m.Update(dateResultMsg{record: failed, err: errors.New("stream starved")})

	view := m.View()
	assert.Contains(t, view, "1/5")
	assert.Contains(t, view, "03/11(月)")
	assert.Contains(t, view, attendance.LabelCorrectionFiled)
	assert.Contains(t, view, attendance.LabelNormal)
	assert.Contains(t, view, "stream starved")
	assert.Contains(t, view, attendance.LabelUndefined)

	report := &orchestrator.Report{RunID: "run-3", Outcomes: []orchestrator.Outcome{
		orchestrator.NewOutcome(filed, nil),
		orchestrator.NewOutcome(normal, nil),
		orchestrator.NewOutcome(failed, errors.New("stream starved")),
	}}
	cmd := func() tea.Cmd { _, c := m.Update(runFinishedMsg{report: report}); return c }()
	assert.NotNil(t, cmd)
	assert.False(t, m.running)
	assert.Equal(t, "run-3", m.runID)
	require.NotNil(t, m.toast)
	assert.Equal(t, "1 date failed", m.toast.message)
	assert.Contains(t, m.View(), "last run run-3")

	// Selection works again
	press(m, "n")
	assert.Equal(t, make([]bool, 6), m.selected)
}

func TestModel_RunStoppedEarly(t *testing.T) {
	m, _ := testModel(t)
	press(m, " ", "enter")

	m.Update(runFinishedMsg{report: &orchestrator.Report{RunID: "run-4"}, err: context.Canceled})
	assert.False(t, m.running)
	require.NotNil(t, m.toast)
	assert.True(t, m.toast.isError)
	assert.Contains(t, m.View(), "(stopped early)")
}

func TestModel_RerunClearsPreviousResult(t *testing.T) {
	m, _ := testModel(t)
	press(m, " ", "enter")
	m.Update(dateResultMsg{record: m.results[5], err: errors.New("malformed job state")})
	m.Update(runFinishedMsg{})

	press(m, "enter")
	assert.NoError(t, m.errs[5])
	assert.Equal(t, attendance.Pending(m.days[5], 5), m.results[5])
}

func TestModel_IgnoresOutOfRangeResult(t *testing.T) {
	m, _ := testModel(t)
	m.Update(dateResultMsg{record: attendance.Pending(attendance.Day{Year: 2024, Month: 3, Date: 1}, 42)})
	assert.Equal(t, 0, m.done)
}

func TestModel_CopyResults(t *testing.T) {
	m, _ := testModel(t)
	var copied string
	m.copy = func(s string) error {
		copied = s
		return nil
	}

	rec := m.results[1]
	rec.State, rec.Next = attendance.Unmarked, attendance.Complete
	m.Update(dateResultMsg{record: rec})
	m.Update(dateResultMsg{record: m.results[2], err: errors.New("navigating: boom")})

	press(m, "c")
	lines := strings.Split(strings.TrimSpace(copied), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date\tbefore\tafter\tlabel\terror", lines[0])
	assert.Equal(t, "2024-03-11\tunmarked\tcomplete\t打刻修正申請済み\t", lines[1])
	assert.Equal(t, "2024-03-12\tunknown\tunknown\t未定義の状態\tnavigating: boom", lines[2])
	assert.Equal(t, "results copied to clipboard", m.toast.message)

	m.copy = func(string) error { return errors.New("no clipboard utility") }
	press(m, "c")
	assert.True(t, m.toast.isError)
	assert.Contains(t, m.toast.message, "no clipboard utility")
}

func TestModel_Quit(t *testing.T) {
	for _, k := range []string{"q", "esc", "ctrl+c"} {
		m, _ := testModel(t)
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = key(k)
		}
		_, cmd := m.Update(msg)
		require.NotNil(t, cmd, k)
		assert.Equal(t, tea.Quit(), cmd(), k)
	}
}

func TestModel_ClearToast(t *testing.T) {
	m, _ := testModel(t)
	m.showToast("hello", false)

	m.Update(clearToastMsg{})
	assert.NotNil(t, m.toast, "toast is kept until it expires")

	m.toast.showUntil = time.Now().Add(-time.Second)
	m.Update(clearToastMsg{})
	assert.Nil(t, m.toast)
}

func TestModel_VisibleRangeFollowsCursor(t *testing.T) {
	m, _ := testModel(t)
	m.height = 11 // three rows

	from, to := m.visibleRange()
	assert.Equal(t, 3, to-from)
	assert.True(t, from <= m.cursor && m.cursor < to)

	press(m, "g")
	from, to = m.visibleRange()
	assert.Equal(t, 0, from)
	assert.Equal(t, 3, to)
}

func TestExecutor_ObserveWithoutProgram(t *testing.T) {
	e := NewExecutor(nil)
	assert.NotPanics(t, func() {
		e.Observe(types.NewRunStartEvent("run-1", 1))
	})
}

func TestFormatDay(t *testing.T) {
	assert.Equal(t, "03/10(日)", formatDay(attendance.Day{Year: 2024, Month: 3, Date: 10}))
	assert.Equal(t, "03/16(土)", formatDay(attendance.Day{Year: 2024, Month: 3, Date: 16}))
}
