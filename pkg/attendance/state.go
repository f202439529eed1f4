package attendance

import "errors"

// ErrMalformedState is returned when the log table cannot be interpreted.
var ErrMalformedState = errors.New("malformed job state")

// JobState is the punch status of one day as rendered in the log table.
// The numeric values are part of the companion wire contract.
type JobState int

const (
	Unknown        JobState = -1
	Unmarked       JobState = 0
	ClockedInOnly  JobState = 1
	ClockedOutOnly JobState = 2
	Complete       JobState = 3
)

const (
	clockInFlag  = 1
	clockOutFlag = 2
)

// StateFromFlags OR-combines the two presence flags into a JobState.
func StateFromFlags(clockedIn, clockedOut bool) JobState {
	code := 0
	if clockedIn {
		code |= clockInFlag
	}
	if clockedOut {
		code |= clockOutFlag
	}
	return JobState(code)
}

// Valid reports whether s is one of the four observable states.
func (s JobState) Valid() bool {
	return s >= Unmarked && s <= Complete
}

// HasClockIn reports whether a clock-in entry exists.
func (s JobState) HasClockIn() bool {
	return s.Valid() && int(s)&clockInFlag != 0
}

// HasClockOut reports whether a clock-out entry exists.
func (s JobState) HasClockOut() bool {
	return s.Valid() && int(s)&clockOutFlag != 0
}

func (s JobState) String() string {
	switch s {
	case Unmarked:
		return "unmarked"
	case ClockedInOnly:
		return "clocked-in-only"
	case ClockedOutOnly:
		return "clocked-out-only"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Labels rendered next to each day, as the portal users know them.
const (
	LabelCorrectionFiled = "打刻修正申請済み" // punches filed by this run
	LabelNormal          = "打刻正常"     // both punches present
	LabelMissingClockOut = "退勤忘れ"     // forgot to clock out
	LabelMissingClockIn  = "出勤忘れ"     // forgot to clock in
	LabelUndefined       = "未定義の状態"   // undefined state
)

// Describe renders a before/after pair for display. It never fails:
// anything it does not recognize becomes LabelUndefined.
func Describe(state, next JobState) string {
	switch {
	case state == Unknown && next == Unknown:
		return ""
	case state == Unmarked && next == Complete:
		return LabelCorrectionFiled
	case state == Complete:
		return LabelNormal
	case state == ClockedInOnly:
		return LabelMissingClockOut
	case state == ClockedOutOnly:
		return LabelMissingClockIn
	default:
		return LabelUndefined
	}
}
