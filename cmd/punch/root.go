package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/entrhq/punch/pkg/browser"
	"github.com/entrhq/punch/pkg/config"
	"github.com/entrhq/punch/pkg/executor/tui"
	"github.com/entrhq/punch/pkg/logging"
	"github.com/entrhq/punch/pkg/orchestrator"
	"github.com/entrhq/punch/pkg/session"
	"github.com/entrhq/punch/pkg/types"
)

var version = "dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	verbosity  string

	cfg    *config.Config
	logger *logging.Logger
}

func newRootCommand(a *app) *cobra.Command {

	cmd := &cobra.Command{
		Use:   "punch",
		Short: "Punch - Jobcan attendance automation",
		Long: `Punch fills in missing clock-in and clock-out entries on the Jobcan
attendance portal by driving a controlled browser window.

Without a subcommand it opens the date picker popup when run in a
terminal. Use "punch run" for scheduled, non-interactive batches.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal() {
				return cmd.Help()
			}
			return a.runPopup(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to configuration file (default ~/.punch/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.verbosity, "verbosity", "", "Logging verbosity: quiet, normal, verbose or debug")

	cmd.AddCommand(newRunCommand(a))
	cmd.AddCommand(newMarkCommand(a))
	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newDatesCommand(a))
	cmd.AddCommand(newLoginCommand(a))

	return cmd
}

func execute(ctx context.Context) error {
	a := &app{}
	defer a.close()
	return newRootCommand(a).ExecuteContext(ctx)
}

// load reads .env and the configuration and sets up logging.
func (a *app) load() error {
	// A missing .env is fine; the environment is used as is.
	_ = godotenv.Load()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbosity != "" {
		cfg.Logging.Verbosity = a.verbosity
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	a.cfg = cfg

	logging.SetLevel(logging.ParseLevel(cfg.Logging.Verbosity))
	a.logger = logging.MustLogger("punch")
	a.logger.Infof("punch %s starting (driver %s, log session %s)", version, cfg.Browser.Driver, a.logger.SessionID())
	return nil
}

// close flushes and closes the log file.
func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

// newDriver creates the configured browser driver.
func (a *app) newDriver() (browser.Driver, error) {
	driver, err := browser.NewDriver(a.cfg.Browser, a.logger.With("browser"))
	if err != nil {
		return nil, fmt.Errorf("failed to create browser driver: %w", err)
	}
	return driver, nil
}

// sessionOptions are the options every run session is opened with.
func (a *app) sessionOptions() session.Options {
	return session.Options{
		StreamTimeout: a.cfg.Batch.StreamTimeout,
		Logger:        a.logger.With("session"),
	}
}

// newOrchestrator wires an orchestrator on driver reporting to emit.
func (a *app) newOrchestrator(driver browser.Driver, emit types.EventEmitter) *orchestrator.Orchestrator {
	opts := []orchestrator.Option{orchestrator.WithLogger(a.logger)}
	if emit != nil {
		opts = append(opts, orchestrator.WithEmitter(emit))
	}
	return orchestrator.New(
		orchestrator.SessionOpener(driver, a.sessionOptions()),
		orchestrator.ConfigFrom(a.cfg),
		opts...,
	)
}

// closeDriver shuts the browser down, logging failures.
func (a *app) closeDriver(driver browser.Driver) {
	if err := driver.Close(); err != nil {
		a.logger.Warnf("failed to close browser: %v", err)
	}
}

// runPopup shows the terminal date picker.
func (a *app) runPopup(ctx context.Context) error {
	driver, err := a.newDriver()
	if err != nil {
		return err
	}
	defer a.closeDriver(driver)

	var popup *tui.Executor
	orch := a.newOrchestrator(driver, func(ev *types.JobEvent) { popup.Observe(ev) })
	popup = tui.NewExecutor(orch, tui.WithLogger(a.logger))
	return popup.Run(ctx)
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
