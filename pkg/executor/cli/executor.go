// Package cli provides a line-oriented executor that prints run progress
// to a terminal while a long-lived surface, such as the bridge server,
// starts runs on behalf of remote callers.
//
// Example usage:
//
//	exec := cli.NewExecutor(cli.WithShowCaptures(true))
//	orch := orchestrator.New(open, cfg, orchestrator.WithEmitter(exec.Observe))
//	srv, _ := bridge.New(orch, serverCfg)
//
//	err := exec.Run(ctx, "http://127.0.0.1:8787", func(ctx context.Context) error {
//	    return srv.ListenAndServe(ctx, "127.0.0.1:8787")
//	})
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/types"
)

// Executor renders job events as plain lines.
type Executor struct {
	writer io.Writer
	mu     sync.Mutex

	// Display options
	showCaptures bool
	showPhases   bool
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*Executor)

// WithShowCaptures enables/disables printing every routed response.
func WithShowCaptures(show bool) ExecutorOption {
	return func(e *Executor) {
		e.showCaptures = show
	}
}

// WithShowPhases enables/disables printing per-date phase transitions.
func WithShowPhases(show bool) ExecutorOption {
	return func(e *Executor) {
		e.showPhases = show
	}
}

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.writer = w
	}
}

// NewExecutor creates a new CLI executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run prints a banner, runs serve until it returns and reports the
// shutdown. A cancelled ctx is a regular stop.
func (e *Executor) Run(ctx context.Context, address string, serve func(ctx context.Context) error) error {
	e.printf("Jobcan Automator bridge on %s\n", address)
	e.printf("Waiting for runs. Press Ctrl+C to stop.\n\n")

	err := serve(ctx)

	e.printf("\nShutting down...\n")
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Observe renders one event. Safe for concurrent use.
func (e *Executor) Observe(event *types.JobEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handleEvent(event)
}

// handleEvent processes a single event based on its type
func (e *Executor) handleEvent(event *types.JobEvent) {
	switch event.Type {
	case types.EventTypeRunStart:
		fmt.Fprintf(e.writer, "▶ Run %s: %v dates\n", event.RunID, event.Metadata["dates"])
	case types.EventTypeRunEnd:
		e.handleRunEnd(event)
	case types.EventTypeSessionOpen:
		// Window churn is only interesting when something failed
	case types.EventTypeSessionClose:
		if event.Error != nil {
			fmt.Fprintf(e.writer, "  ⚠ Window closed: %v\n", event.Error)
		}
	case types.EventTypeDelay:
		// Pacing is not displayed
	case types.EventTypePhase:
		if e.showPhases {
			fmt.Fprintf(e.writer, "  · %s %s\n", event.Date, event.Phase)
		}
	case types.EventTypeStateObserved:
		// Reported with the date result
	case types.EventTypePunchSubmitted:
		fmt.Fprintf(e.writer, "  🕘 %s %s at %v\n", event.Date, event.Punch, event.Metadata["time"])
	case types.EventTypePunchCommitted:
		// The date result follows
	case types.EventTypeDateDone:
		e.handleDateDone(event)
	case types.EventTypeDateFailed:
		fmt.Fprintf(e.writer, "  ❌ %s: %v\n", event.Date, event.Error)
	case types.EventTypeResponseCapture:
		if e.showCaptures {
			fmt.Fprintf(e.writer, "    ↳ %v %v\n", event.Metadata["stream"], event.Metadata["url"])
		}
	}
}

func (e *Executor) handleDateDone(event *types.JobEvent) {
	state, next := attendance.JobState(event.State), attendance.JobState(event.Next)
	label := attendance.Describe(state, next)
	if label == "" {
		label = "-"
	}
	fmt.Fprintf(e.writer, "  ✅ %s %s → %s %s\n", event.Date, state, next, label)
}

func (e *Executor) handleRunEnd(event *types.JobEvent) {
	failed, _ := event.Metadata["failed"].(int)
	if failed > 0 {
		fmt.Fprintf(e.writer, "■ Run %s finished, %d failed\n\n", event.RunID, failed)
		return
	}
	fmt.Fprintf(e.writer, "■ Run %s finished\n\n", event.RunID)
}

func (e *Executor) printf(format string, args ...interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.writer, format, args...)
}
