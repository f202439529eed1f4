package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/executor/headless"
)

func newRunCommand(a *app) *cobra.Command {
	var (
		dates       []string
		weekdays    bool
		timeout     time.Duration
		noArtifacts bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Complete missing punches on the given dates without the popup",
		Long: `Run processes a batch of dates headlessly: every date is opened on the
portal, its job state is scanned and the missing clock-in or clock-out is
filed. A summary is printed and written as artifacts.

Dates come from --date (repeatable, YYYY-MM-DD) or --weekdays, which picks
every weekday of the selectable window.`,
		Example: `  punch run --date 2024-03-05 --date 2024-03-06
  punch run --weekdays --timeout 45m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := selectDates(time.Now(), dates, weekdays)
			if err != nil {
				return err
			}

			cfg := headless.FromConfig(a.cfg)
			cfg.Dates = days
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = timeout
			}
			if noArtifacts {
				cfg.Artifacts.Enabled = false
			}
			return a.runHeadless(cmd, cfg)
		},
	}

	cmd.Flags().StringSliceVarP(&dates, "date", "d", nil, "Date to process, YYYY-MM-DD (repeatable)")
	cmd.Flags().BoolVar(&weekdays, "weekdays", false, "Process every weekday of the selectable window")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "Maximum duration of the whole run (0 for no limit)")
	cmd.Flags().BoolVar(&noArtifacts, "no-artifacts", false, "Do not write run artifacts")

	return cmd
}

// selectDates resolves the dates a run covers. Explicit dates keep their
// order; --weekdays picks from the window selectable on now.
func selectDates(now time.Time, dates []string, weekdays bool) ([]attendance.Day, error) {
	if weekdays && len(dates) > 0 {
		return nil, fmt.Errorf("--date and --weekdays are mutually exclusive")
	}

	if weekdays {
		window := attendance.SelectableDates(now)
		var days []attendance.Day
		for _, rec := range attendance.Records(window, attendance.Weekdays(window)) {
			days = append(days, rec.Day)
		}
		if len(days) == 0 {
			return nil, fmt.Errorf("no weekdays in the selectable window")
		}
		return days, nil
	}

	if len(dates) == 0 {
		return nil, fmt.Errorf("no dates given: use --date or --weekdays")
	}

	days := make([]attendance.Day, 0, len(dates))
	seen := make(map[attendance.Day]bool, len(dates))
	for _, s := range dates {
		d, err := attendance.ParseDay(s)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	return days, nil
}

// runHeadless runs cfg through a fresh orchestrator and reports where the
// session log went.
func (a *app) runHeadless(cmd *cobra.Command, cfg *headless.Config) error {
	exec, err := headless.NewExecutor(cfg)
	if err != nil {
		return err
	}

	driver, err := a.newDriver()
	if err != nil {
		return err
	}
	defer a.closeDriver(driver)

	orch := a.newOrchestrator(driver, exec.Observe)
	runErr := exec.Run(cmd.Context(), orch)
	if dir := exec.ArtifactDir(); dir != "" {
		a.logger.Infof("run artifacts in %s", dir)
	}

	if path := a.logger.LogPath(); path != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Log written to %s\n", path)
	}
	return runErr
}
