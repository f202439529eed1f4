package headless

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/orchestrator"
	"github.com/entrhq/punch/pkg/types"
)

const (
	statusSuccess        = "success"
	statusFailed         = "failed"
	statusPartialSuccess = "partial_success"
)

// ErrDatesFailed is returned by Run when at least one date failed.
var ErrDatesFailed = errors.New("one or more dates failed")

// Runner executes runs. *orchestrator.Orchestrator satisfies it.
type Runner interface {
	RunBatch(ctx context.Context, records []attendance.DateRecord, reply orchestrator.ReplyFunc) (*orchestrator.Report, error)
	RunPunch(ctx context.Context, p attendance.Punch, links []string, reply orchestrator.ReplyFunc) (*orchestrator.Report, error)
}

// Executor implements the headless mode executor
type Executor struct {
	config  *Config
	console *Logger

	mu      sync.Mutex
	summary *ExecutionSummary
	written string
}

// Option configures an Executor.
type Option func(*Executor)

// WithConsole replaces the stdout console.
func WithConsole(l *Logger) Option {
	return func(e *Executor) {
		e.console = l
	}
}

// NewExecutor creates a new headless executor
func NewExecutor(config *Config, opts ...Option) (*Executor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Executor{
		config:  config,
		console: NewLogger(ParseLogLevel(config.Logging.Verbosity)),
		summary: &ExecutionSummary{
			Task:   config.Task,
			Mode:   config.Mode.String(),
			Status: "running",
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Observe consumes run events for console progress and metrics. It is
// meant to be installed with orchestrator.WithEmitter and is safe for
// concurrent use.
func (e *Executor) Observe(ev *types.JobEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := &e.summary.Metrics
	switch ev.Type {
	case types.EventTypeRunStart:
		e.summary.RunID = ev.RunID
		e.console.Section(fmt.Sprintf("Run %s", ev.RunID))
	case types.EventTypeSessionOpen:
		m.Sessions++
		e.console.Verbosef("window %v opened", ev.Metadata["window_id"])
	case types.EventTypeSessionClose:
		if ev.Error != nil {
			e.console.Warningf("window %v did not close cleanly: %v", ev.Metadata["window_id"], ev.Error)
		} else {
			e.console.Verbosef("window %v closed", ev.Metadata["window_id"])
		}
	case types.EventTypeDelay:
		e.console.Verbosef("waiting %v before %s", ev.Metadata["delay"], ev.Date)
	case types.EventTypePhase:
		e.console.Debugf("%s: %s", ev.Date, ev.Phase)
	case types.EventTypeStateObserved:
		e.console.Verbosef("%s: %s", ev.Date, attendance.JobState(ev.State))
	case types.EventTypePunchSubmitted:
		m.PunchesSubmitted++
		at, _ := ev.Metadata["time"].(string)
		e.console.PunchSubmitted(ev.Date, ev.Punch, at)
	case types.EventTypePunchCommitted:
		m.PunchesCommitted++
		e.console.Debugf("%s: %s committed (%v)", ev.Date, ev.Punch, ev.Metadata["transport_id"])
	case types.EventTypeDateDone:
		e.console.DateResult(ev.Index, ev.Date, attendance.Describe(attendance.JobState(ev.State), attendance.JobState(ev.Next)), nil)
	case types.EventTypeDateFailed:
		e.console.DateResult(ev.Index, ev.Date, "", ev.Error)
	case types.EventTypeResponseCapture:
		m.ResponsesCaptured++
		e.console.Debugf("captured %v %v", ev.Metadata["stream"], ev.Metadata["url"])
	}
}

// Run executes the configured run on runner, writes artifacts and prints
// the summary. It returns ErrDatesFailed when any date failed.
func (e *Executor) Run(ctx context.Context, runner Runner) error {
	start := time.Now()
	e.mu.Lock()
	e.summary.StartTime = start
	e.mu.Unlock()

	e.console.Header("Punch headless run")
	e.console.Infof("Task: %s", e.config.Task)
	e.console.Newline()

	execCtx := ctx
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	var (
		report *orchestrator.Report
		err    error
	)
	if e.config.Mode == attendance.ModeBatch {
		records := make([]attendance.DateRecord, len(e.config.Dates))
		for i, d := range e.config.Dates {
			records[i] = attendance.Pending(d, i)
		}
		report, err = runner.RunBatch(execCtx, records, nil)
	} else {
		report, err = runner.RunPunch(execCtx, e.config.Punch(), e.config.Links, nil)
	}

	return e.finalize(report, err)
}

// Summary returns a copy of the current summary.
func (e *Executor) Summary() ExecutionSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.summary
}

// ArtifactDir returns the directory the last run wrote its artifacts to,
// or "" when none were written.
func (e *Executor) ArtifactDir() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.written
}

// finalize completes the execution and generates artifacts
func (e *Executor) finalize(report *orchestrator.Report, runErr error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.summary
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	if report != nil {
		if report.RunID != "" {
			s.RunID = report.RunID
		}
		s.Dates = s.Dates[:0]
		s.Metrics.Dates = len(report.Outcomes)
		s.Metrics.Changed, s.Metrics.Unchanged, s.Metrics.Failed = 0, 0, 0
		for _, out := range report.Outcomes {
			s.Dates = append(s.Dates, dateSummary(out))
			switch {
			case out.Err() != nil:
				s.Metrics.Failed++
			case out.Record.Next != out.Record.State:
				s.Metrics.Changed++
			default:
				s.Metrics.Unchanged++
			}
		}
	}

	failed := s.Metrics.Failed
	switch {
	case runErr != nil:
		s.Status = statusFailed
		s.Error = runErr.Error()
	case s.Metrics.Dates > 0 && failed == s.Metrics.Dates:
		s.Status = statusFailed
		s.Error = fmt.Sprintf("all %d dates failed", failed)
	case failed > 0:
		s.Status = statusPartialSuccess
		s.Error = fmt.Sprintf("%d of %d dates failed", failed, s.Metrics.Dates)
	default:
		s.Status = statusSuccess
	}

	// Artifacts are written on failure too
	if e.config.Artifacts.Enabled {
		dir := s.RunID
		if dir == "" {
			dir = s.StartTime.Format("20060102-150405")
		}
		writer := NewArtifactWriter(filepath.Join(e.config.Artifacts.OutputDir, dir), e.config.Artifacts)
		if err := writer.WriteAll(s); err != nil {
			e.console.Warningf("failed to write artifacts: %v", err)
		} else {
			e.written = writer.Dir()
			e.console.Successf("Artifacts written to %s", writer.Dir())
		}
	}

	e.console.Summary(s)

	switch {
	case runErr != nil:
		return fmt.Errorf("run failed: %w", runErr)
	case failed > 0:
		return fmt.Errorf("%w: %s", ErrDatesFailed, s.Error)
	}
	return nil
}

func dateSummary(out orchestrator.Outcome) DateSummary {
	rec := out.Record
	return DateSummary{
		Index:  rec.Index,
		Date:   rec.Day.String(),
		State:  int(rec.State),
		Next:   int(rec.Next),
		Before: rec.State.String(),
		After:  rec.Next.String(),
		Label:  rec.ResultLabel(out.Err()),
		Error:  out.Error,
	}
}
