// Package main provides the punch command: Jobcan attendance automation
// through a controlled browser window.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/punch/pkg/executor/headless"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Every date processed
	ExitDatesFailed = 1 // The run finished but one or more dates failed
	ExitError       = 2 // Configuration or runtime error
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, headless.ErrDatesFailed):
		return ExitDatesFailed
	default:
		return ExitError
	}
}
