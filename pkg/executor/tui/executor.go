// Package tui provides the terminal popup: the selectable date window with
// a checkbox per day, a batch run over the checked days and the label of
// every day as its result arrives.
//
// The TUI codebase is split into multiple files:
// - executor.go: Executor implementation and program lifecycle
// - model.go: Core model structure, state and messages
// - update.go: Bubble Tea Update function and key handling
// - view.go: Bubble Tea View function and rendering
// - events.go: Run event processing
// - helpers.go: Formatting utilities and the result table
// - styles.go: Color schemes and styling
package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/logging"
	"github.com/entrhq/punch/pkg/orchestrator"
	"github.com/entrhq/punch/pkg/types"
)

// Runner executes batch runs. *orchestrator.Orchestrator satisfies it.
type Runner interface {
	RunBatch(ctx context.Context, records []attendance.DateRecord, reply orchestrator.ReplyFunc) (*orchestrator.Report, error)
}

// Executor runs the popup against a Runner.
type Executor struct {
	runner    Runner
	now       func() time.Time
	clipboard func(string) error
	logger    *logging.Logger

	mu      sync.Mutex
	program *tea.Program
	runs    sync.WaitGroup
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock sets the clock the date window is computed from.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// NewExecutor creates a popup executor dispatching runs to runner.
func NewExecutor(runner Runner, opts ...Option) *Executor {
	e := &Executor{
		runner:    runner,
		now:       time.Now,
		clipboard: clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("tui")
	return e
}

// Observe forwards run events to the popup. It is meant to be installed
// with orchestrator.WithEmitter; events arriving while no popup is shown
// are dropped.
func (e *Executor) Observe(ev *types.JobEvent) {
	e.send(jobEventMsg{event: ev})
}

func (e *Executor) send(msg tea.Msg) {
	e.mu.Lock()
	p := e.program
	e.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Run shows the popup and blocks until the user exits. A run still in
// progress at exit is cancelled and waited for, so its window is closed
// before Run returns.
func (e *Executor) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(attendance.SelectableDates(e.now()))
	m.copy = e.clipboard
	m.logger = e.logger
	m.start = func(records []attendance.DateRecord) tea.Cmd {
		e.runs.Add(1)
		return func() tea.Msg {
			defer e.runs.Done()
			report, err := e.runner.RunBatch(runCtx, records, func(rec attendance.DateRecord, err error) {
				e.send(dateResultMsg{record: rec, err: err})
			})
			return runFinishedMsg{report: report, err: err}
		}
	}

	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithContext(ctx))
	e.mu.Lock()
	e.program = p
	e.mu.Unlock()

	_, err := p.Run()

	e.mu.Lock()
	e.program = nil
	e.mu.Unlock()
	cancel()
	e.runs.Wait()

	if err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return fmt.Errorf("failed to run TUI program: %w", err)
	}
	return nil
}
