package orchestrator

import (
	"context"
	"fmt"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/browser"
	"github.com/entrhq/punch/pkg/capture"
	"github.com/entrhq/punch/pkg/types"
)

// Phase is a step of the per-date state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseNavigating
	PhaseAwaitingSummary
	PhaseDeciding
	PhaseMutating
	PhaseAwaitingCommit
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseNavigating:
		return "navigating"
	case PhaseAwaitingSummary:
		return "awaiting-summary"
	case PhaseDeciding:
		return "deciding"
	case PhaseMutating:
		return "mutating"
	case PhaseAwaitingCommit:
		return "awaiting-commit"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// dateRun carries one date through the state machine.
type dateRun struct {
	o      *Orchestrator
	runID  string
	target Target
	rec    attendance.DateRecord
	phase  Phase
}

func (r *dateRun) enter(p Phase) {
	r.phase = p
	r.o.emit(types.NewPhaseEvent(r.runID, r.rec.Day.String(), r.rec.Index, p.String()))
}

// fail marks the record as aborted in the current phase.
func (r *dateRun) fail(err error) (attendance.DateRecord, error) {
	r.rec.Next = attendance.Unknown
	err = fmt.Errorf("%s: %s: %w", r.rec.Day, r.phase, err)
	r.o.logger.Warnf("date %s (#%d) failed: %v", r.rec.Day, r.rec.Index, err)
	r.o.emit(types.NewDateFailedEvent(r.runID, r.rec.Day.String(), r.rec.Index, int(r.rec.State), err))
	return r.rec, err
}

// ProcessDate drives rec through the edit page in target under mode and
// returns it with State set to the observed state and Next to the state
// actually reached. On failure Next is attendance.Unknown.
func (o *Orchestrator) ProcessDate(ctx context.Context, target Target, rec attendance.DateRecord, mode attendance.Mode) (attendance.DateRecord, error) {
	return o.processDate(ctx, "", target, rec, mode)
}

func (o *Orchestrator) processDate(ctx context.Context, runID string, target Target, rec attendance.DateRecord, mode attendance.Mode) (attendance.DateRecord, error) {
	rec.State = attendance.Unknown
	rec.Next = attendance.Unknown
	r := &dateRun{o: o, runID: runID, target: target, rec: rec, phase: PhaseIdle}

	if !rec.Day.Valid() {
		return r.fail(fmt.Errorf("invalid date %s", rec.Day))
	}

	// The summary wait is armed before navigation so the page's fetch
	// cannot slip past.
	r.enter(PhaseNavigating)
	summary := target.Expect(capture.StreamSummary)
	if _, err := target.Execute(ctx, browser.Navigate{URL: attendance.DeepLink(o.cfg.BaseURL, rec.Day)}); err != nil {
		summary.Cancel()
		return r.fail(err)
	}

	r.enter(PhaseAwaitingSummary)
	if _, err := summary.Wait(ctx); err != nil {
		return r.fail(err)
	}

	r.enter(PhaseDeciding)
	state, err := r.scan(ctx)
	r.rec.State = state
	if err != nil {
		return r.fail(err)
	}
	o.emit(types.NewStateObservedEvent(runID, rec.Day.String(), rec.Index, int(state)))

	plan := attendance.Decide(mode, state)
	reached := state
	for _, p := range plan.Punches {
		if err := r.punch(ctx, p); err != nil {
			return r.fail(err)
		}
		reached = attendance.StateFromFlags(reached.HasClockIn() || p == attendance.ClockIn, reached.HasClockOut() || p == attendance.ClockOut)
	}

	r.rec.Next = reached
	r.enter(PhaseDone)
	o.logger.Infof("date %s (#%d): %s", rec.Day, rec.Index, r.rec.Label())
	o.emit(types.NewDateDoneEvent(runID, rec.Day.String(), rec.Index, int(r.rec.State), int(r.rec.Next)))
	return r.rec, nil
}

func (r *dateRun) scan(ctx context.Context) (attendance.JobState, error) {
	res, err := r.target.Execute(ctx, browser.ScanTable{Selector: SelectorLogTable})
	if err != nil {
		return attendance.Unknown, err
	}
	fragment, err := res.Text()
	if err != nil {
		return attendance.Unknown, fmt.Errorf("%w: %v", attendance.ErrMalformedState, err)
	}
	return attendance.ParseLogTable(fragment)
}

// punch fills the edit form for p, submits it and waits for the insert
// acknowledgement.
func (r *dateRun) punch(ctx context.Context, p attendance.Punch) error {
	r.enter(PhaseMutating)
	at := r.o.punchTime(p)

	commit := r.target.Expect(capture.StreamEditCommitted)
	ops := []browser.Operation{
		browser.SelectOption{Selector: SelectorPunchKind, Label: p.Label()},
		browser.SetField{Selector: SelectorTime, Value: at},
		browser.Click{Selector: SelectorSubmit},
	}
	for _, op := range ops {
		if _, err := r.target.Execute(ctx, op); err != nil {
			commit.Cancel()
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	r.o.emit(types.NewPunchSubmittedEvent(r.runID, r.rec.Day.String(), r.rec.Index, p.String(), at))

	r.enter(PhaseAwaitingCommit)
	ack, err := commit.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	r.o.emit(types.NewPunchCommittedEvent(r.runID, r.rec.Day.String(), r.rec.Index, p.String(), string(ack.TransportID)))
	return nil
}
