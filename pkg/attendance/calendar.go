package attendance

import "time"

const (
	windowDays = 31
	// closingDay is the day of month the portal's pay period starts on.
	closingDay = 10
)

// SelectableDates returns the days a user may pick on now's date: from
// the 10th of this month (or last month when today is the 10th or
// earlier) for 31 days, never past today.
func SelectableDates(now time.Time) []Day {
	month := now.Month()
	if now.Day() <= closingDay {
		month--
	}
	start := time.Date(now.Year(), month, closingDay, 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	days := make([]Day, 0, windowDays)
	for i := 0; i < windowDays; i++ {
		d := start.AddDate(0, 0, i)
		if d.After(today) {
			break
		}
		days = append(days, DayOf(d))
	}
	return days
}

// Weekdays marks every day that is not a Saturday or Sunday.
func Weekdays(days []Day) []bool {
	selected := make([]bool, len(days))
	for i, d := range days {
		selected[i] = !d.Weekend()
	}
	return selected
}

// Records turns the selected positions of days into pending records.
func Records(days []Day, selected []bool) []DateRecord {
	var out []DateRecord
	for i, d := range days {
		if i < len(selected) && selected[i] {
			out = append(out, Pending(d, i))
		}
	}
	return out
}
