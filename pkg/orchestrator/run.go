package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/capture"
	"github.com/entrhq/punch/pkg/session"
	"github.com/entrhq/punch/pkg/types"
)

// ReplyFunc receives each date as soon as it is finished, in input order.
type ReplyFunc func(rec attendance.DateRecord, err error)

// Outcome is the result of one date.
type Outcome struct {
	Record attendance.DateRecord `json:"record"`
	Error  string                `json:"error,omitempty"`
	err    error
}

// NewOutcome records rec finishing with err.
func NewOutcome(rec attendance.DateRecord, err error) Outcome {
	out := Outcome{Record: rec, err: err}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

// Err returns the failure of the date, or nil.
func (o Outcome) Err() error {
	return o.err
}

// Report summarises a finished run.
type Report struct {
	RunID    string          `json:"run_id"`
	Mode     attendance.Mode `json:"-"`
	ModeName string          `json:"mode"`
	Started  time.Time       `json:"started"`
	Finished time.Time       `json:"finished"`
	Outcomes []Outcome       `json:"outcomes"`
}

// Failed returns the number of failed dates.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.err != nil {
			n++
		}
	}
	return n
}

type job struct {
	rec attendance.DateRecord
	err error
}

// RunBatch completes every unmarked date in records with a clock-in and
// a clock-out, pacing itself before each date. Records already punched
// are reported unchanged.
//
// A failed date is reported with Next set to attendance.Unknown and the
// run continues in a fresh session. If the window was closed by the user
// or ctx ends, every remaining date fails with capture.ErrSessionClosed.
func (o *Orchestrator) RunBatch(ctx context.Context, records []attendance.DateRecord, reply ReplyFunc) (*Report, error) {
	jobs := make([]job, len(records))
	for i, rec := range records {
		jobs[i] = job{rec: rec}
	}
	return o.run(ctx, jobs, attendance.ModeBatch, true, reply)
}

// RunPunch submits a single p on each day addressed by links (edit page
// hrefs as collected from the attendance list), where it is missing.
func (o *Orchestrator) RunPunch(ctx context.Context, p attendance.Punch, links []string, reply ReplyFunc) (*Report, error) {
	jobs := make([]job, len(links))
	for i, href := range links {
		rec := attendance.Pending(attendance.Day{}, i)
		link, err := attendance.ResolveLink(o.cfg.BaseURL, href)
		if err == nil {
			rec.Day, err = attendance.DayFromLink(link)
		}
		jobs[i] = job{rec: rec, err: err}
	}
	return o.run(ctx, jobs, attendance.ModeFor(p), false, reply)
}

func (o *Orchestrator) run(ctx context.Context, jobs []job, mode attendance.Mode, paced bool, reply ReplyFunc) (*Report, error) {
	if reply == nil {
		reply = func(attendance.DateRecord, error) {}
	}

	report := &Report{
		RunID:    o.newID(),
		Mode:     mode,
		ModeName: mode.String(),
		Started:  time.Now(),
	}
	runID := report.RunID
	o.logger.Infof("run %s: %s over %d dates", runID, mode, len(jobs))
	o.emit(types.NewRunStartEvent(runID, len(jobs)))

	finish := func(rec attendance.DateRecord, err error) {
		report.Outcomes = append(report.Outcomes, NewOutcome(rec, err))
		reply(rec, err)
	}

	var target Target
	closeTarget := func() {
		if target == nil {
			return
		}
		err := target.Close()
		if err != nil {
			o.logger.Warnf("failed to close session %s: %v", target.ID(), err)
		}
		o.emit(types.NewSessionCloseEvent(runID, string(target.ID()), err))
		target = nil
	}
	defer closeTarget()

	observe := func(stream string, rec capture.ResponseRecord) {
		o.emit(types.NewResponseCapturedEvent(runID, stream, string(rec.TransportID), rec.URL))
	}

	var abort error
	for _, j := range jobs {
		rec := j.rec
		rec.State = attendance.Unknown
		rec.Next = attendance.Unknown

		if abort == nil {
			abort = o.aborted(ctx, target)
		}
		if abort != nil {
			o.emit(types.NewDateFailedEvent(runID, rec.Day.String(), rec.Index, int(rec.State), abort))
			finish(rec, abort)
			continue
		}
		if j.err != nil {
			o.emit(types.NewDateFailedEvent(runID, rec.Day.String(), rec.Index, int(rec.State), j.err))
			finish(rec, j.err)
			continue
		}

		if target == nil {
			t, err := o.open(ctx, observe)
			if err != nil {
				err = fmt.Errorf("%s: failed to open session: %w", rec.Day, err)
				o.logger.Errorf("run %s: %v", runID, err)
				o.emit(types.NewDateFailedEvent(runID, rec.Day.String(), rec.Index, int(rec.State), err))
				finish(rec, err)
				continue
			}
			target = t
			o.emit(types.NewSessionOpenEvent(runID, string(target.ID())))
		}

		if paced {
			delay := o.Delay()
			o.emit(types.NewDelayEvent(runID, rec.Day.String(), rec.Index, delay.String()))
			if err := o.sleep(ctx, delay); err != nil {
				abort = fmt.Errorf("%w: %w", capture.ErrSessionClosed, err)
				o.emit(types.NewDateFailedEvent(runID, rec.Day.String(), rec.Index, int(rec.State), abort))
				finish(rec, abort)
				continue
			}
		}

		out, err := o.processDate(ctx, runID, target, rec, mode)
		finish(out, err)
		if err != nil {
			abort = o.aborted(ctx, target)
			// The page may be anywhere now; continue in a fresh window.
			closeTarget()
		}
	}
	closeTarget()

	report.Finished = time.Now()
	failed := report.Failed()
	o.emit(types.NewRunEndEvent(runID, failed))
	o.logger.Infof("run %s finished: %d/%d dates failed", runID, failed, len(jobs))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// aborted returns the error remaining dates fail with once the user
// stopped the run, or nil.
func (o *Orchestrator) aborted(ctx context.Context, target Target) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", capture.ErrSessionClosed, err)
	}
	if target != nil && target.ClosedByUser() {
		return fmt.Errorf("%w: %w", capture.ErrSessionClosed, session.ErrWindowClosed)
	}
	return nil
}
