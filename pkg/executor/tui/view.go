package tui

import (
	"fmt"
	"strings"
)

// View renders the popup.
func (m *model) View() string {
	sections := []string{
		m.buildHeader(),
		m.buildTips(),
		m.buildList(),
		m.buildStatus(),
	}
	if toast := m.buildToast(); toast != "" {
		sections = append(sections, toast)
	}
	return strings.Join(sections, "\n")
}

// buildHeader renders the title
func (m *model) buildHeader() string {
	return headerStyle.Render("  Jobcan Automator")
}

// buildTips renders context-sensitive usage tips
func (m *model) buildTips() string {
	if m.running {
		return tipsStyle.Render("  Running • c copy results • q quit (cancels the run)")
	}
	return tipsStyle.Render("  ↑/↓ move • space toggle • w weekdays • a all • n none • enter run • c copy • q quit")
}

// visibleRange returns the window of rows that fits the terminal and keeps
// the cursor in view.
func (m *model) visibleRange() (int, int) {
	rows := len(m.days)
	limit := m.height - 8
	if m.height == 0 || limit >= rows {
		return 0, rows
	}
	if limit < 3 {
		limit = 3
	}
	start := m.cursor - limit/2
	if start < 0 {
		start = 0
	}
	if start+limit > rows {
		start = rows - limit
	}
	return start, start + limit
}

// buildList renders one row per selectable day
func (m *model) buildList() string {
	if len(m.days) == 0 {
		return listBoxStyle.Render("no selectable dates")
	}

	from, to := m.visibleRange()
	lines := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		lines = append(lines, m.buildRow(i))
	}

	box := listBoxStyle
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	return box.Render(strings.Join(lines, "\n"))
}

func (m *model) buildRow(i int) string {
	cursor := "  "
	if i == m.cursor && !m.running {
		cursor = cursorStyle.Render("> ")
	}

	check := "[ ]"
	if m.selected[i] {
		check = "[x]"
	}

	day := m.days[i]
	date := dateStyle.Render(formatDay(day))
	if day.Weekend() {
		date = weekendStyle.Render(formatDay(day))
	}

	row := fmt.Sprintf("%s%s %s", cursor, check, date)
	if err := m.errs[i]; err != nil {
		label := m.results[i].ResultLabel(err)
		return row + "  " + labelStyle(label).Render(label) + " " + errorStyle.Render(err.Error())
	}
	if label := m.results[i].Label(); label != "" {
		return row + "  " + labelStyle(label).Render(label)
	}
	return row
}

// buildStatus renders the progress of the run or the outcome of the last one
func (m *model) buildStatus() string {
	if m.running {
		line := fmt.Sprintf("%s %d/%d %s", m.spinner.View(), m.done, m.total, m.status)
		return statusBarStyle.Render(line)
	}

	selected := len(m.checked())
	line := fmt.Sprintf("%s selected", plural(selected, "date"))
	if m.runID != "" {
		line += fmt.Sprintf(" • last run %s", m.runID)
	}
	if m.runErr != nil {
		line += " (stopped early)"
	}
	return statusBarStyle.Render(line)
}

// buildToast renders the active notification
func (m *model) buildToast() string {
	if m.toast == nil {
		return ""
	}
	if m.toast.isError {
		return toastStyle.Render("✗ " + m.toast.message)
	}
	return toastStyle.Render("✓ " + m.toast.message)
}
