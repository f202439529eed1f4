package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/punch/pkg/attendance"
)

var weekdayNames = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// formatDay renders a day as "03/05(火)".
func formatDay(d attendance.Day) string {
	return fmt.Sprintf("%02d/%02d(%s)", d.Month, d.Date, weekdayNames[d.Time().Weekday()])
}

// labelStyle picks the style a result label is rendered with.
func labelStyle(label string) lipgloss.Style {
	switch label {
	case attendance.LabelCorrectionFiled:
		return filedStyle
	case attendance.LabelNormal:
		return normalStyle
	default:
		return missingStyle
	}
}

// resultTable renders the results as tab-separated lines for pasting into
// a spreadsheet. Days never processed are left out.
func resultTable(results []attendance.DateRecord, errs []error) string {
	var b strings.Builder
	b.WriteString("date\tbefore\tafter\tlabel\terror\n")
	for i, rec := range results {
		var err error
		if i < len(errs) {
			err = errs[i]
		}
		if err == nil && rec.State == attendance.Unknown && rec.Next == attendance.Unknown {
			continue
		}
		errText := ""
		if err != nil {
			errText = err.Error()
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%s\n", rec.Day, rec.State, rec.Next, rec.ResultLabel(err), errText)
	}
	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
