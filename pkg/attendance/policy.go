package attendance

import "fmt"

// Punch is one kind of attendance mutation.
type Punch int

const (
	ClockIn Punch = iota
	ClockOut
)

func (p Punch) String() string {
	if p == ClockOut {
		return "clock-out"
	}
	return "clock-in"
}

// Label is the option label of the punch kind in the portal's edit form.
func (p Punch) Label() string {
	if p == ClockOut {
		return RowClockOut
	}
	return RowClockIn
}

func (p Punch) flag() int {
	if p == ClockOut {
		return clockOutFlag
	}
	return clockInFlag
}

// ParsePunch accepts the command names used by the trigger surface and
// the content-script bridge.
func ParsePunch(name string) (Punch, error) {
	switch name {
	case "clock-in", "attendance", "in":
		return ClockIn, nil
	case "clock-out", "leave", "out":
		return ClockOut, nil
	default:
		return ClockIn, fmt.Errorf("unknown punch kind %q", name)
	}
}

// Mode selects which policy applies to a date.
type Mode int

const (
	// ModeBatch completes unmarked days with both punches.
	ModeBatch Mode = iota
	// ModeClockIn submits only a clock-in where one is missing.
	ModeClockIn
	// ModeClockOut submits only a clock-out where one is missing.
	ModeClockOut
)

// ModeFor returns the single-action mode for p.
func ModeFor(p Punch) Mode {
	if p == ClockOut {
		return ModeClockOut
	}
	return ModeClockIn
}

func (m Mode) String() string {
	switch m {
	case ModeClockIn:
		return "clock-in"
	case ModeClockOut:
		return "clock-out"
	default:
		return "batch"
	}
}

// Plan is the outcome of the decision policy for one observed state.
type Plan struct {
	// Punches are submitted in order; empty means no mutation.
	Punches []Punch
	// Next is the state the day is in once every punch has committed.
	Next JobState
}

// Noop reports whether the plan performs no mutation.
func (p Plan) Noop() bool {
	return len(p.Punches) == 0
}

// Decide maps an observed state to the punches to perform. It is the
// single policy used by both batch and single-action runs.
func Decide(mode Mode, state JobState) Plan {
	switch mode {
	case ModeClockIn:
		return single(ClockIn, state)
	case ModeClockOut:
		return single(ClockOut, state)
	default:
		return batch(state)
	}
}

func batch(state JobState) Plan {
	if state == Unmarked {
		return Plan{Punches: []Punch{ClockIn, ClockOut}, Next: Complete}
	}
	return Plan{Next: state}
}

func single(p Punch, state JobState) Plan {
	if !state.Valid() || int(state)&p.flag() != 0 {
		return Plan{Next: state}
	}
	return Plan{Punches: []Punch{p}, Next: JobState(int(state) | p.flag())}
}
