package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/browser"
	"github.com/entrhq/punch/pkg/executor/headless"
	"github.com/entrhq/punch/pkg/session"
	"github.com/entrhq/punch/pkg/trigger"
)

// errCancelled is returned when the user backs out of a prompt.
var errCancelled = errors.New("cancelled")

func newMarkCommand(a *app) *cobra.Command {
	var links []string

	cmd := &cobra.Command{
		Use:       "mark attendance|leave",
		Short:     "File one punch type on the dates picked in the attendance list",
		ValidArgs: []string{"attendance", "leave"},
		Args:      cobra.ExactArgs(1),
		Long: `Mark submits a single punch type: "attendance" files the scheduled
clock-in, "leave" the scheduled clock-out.

Without --url the attendance list opens in the controlled window with a
checkbox on every row. Tick the days, confirm in the terminal and the
punch is filed on each of them.`,
		Example: `  punch mark attendance
  punch mark leave --url "https://ssl.jobcan.jp/employee/adit/modify?year=2024&month=3&day=5"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			menu, err := trigger.NewMenu(a.cfg.Portal.BaseURL + trigger.AttendancePath + "*")
			if err != nil {
				return err
			}
			command, err := menu.Lookup(args[0])
			if err != nil {
				return err
			}

			if len(links) == 0 {
				if !isTerminal() {
					return fmt.Errorf("picking dates needs a terminal; pass --url instead")
				}
				links, err = a.pickLinks(cmd.Context(), menu, command)
				if err != nil {
					return err
				}
			}

			cfg := headless.FromConfig(a.cfg)
			cfg.Mode = attendance.ModeFor(command.Punch)
			cfg.Links = links
			return a.runHeadless(cmd, cfg)
		},
	}

	cmd.Flags().StringSliceVar(&links, "url", nil, "Edit page link to punch (repeatable); skips the attendance list")

	return cmd
}

// pickLinks opens the decorated attendance list and returns the edit links
// of the rows the user ticked.
func (a *app) pickLinks(ctx context.Context, menu *trigger.Menu, command trigger.Command) ([]string, error) {
	driver, err := a.newDriver()
	if err != nil {
		return nil, err
	}
	defer a.closeDriver(driver)

	documentURL := a.cfg.Portal.BaseURL + trigger.AttendancePath
	opts := a.sessionOptions()
	opts.URL = documentURL
	opts.Window = browser.WindowOptions{Title: "Jobcan Automator"}

	sess, err := session.Open(ctx, driver, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			a.logger.Warnf("failed to close picker window: %v", err)
		}
	}()

	rows, err := trigger.Decorate(ctx, sess)
	if err != nil {
		return nil, err
	}
	a.logger.Infof("decorated %d attendance rows", rows)

	confirmed := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Tick the days in the browser window, then file %s (%s)?", command.Title, command.Punch.Label())).
				Affirmative("File").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithShowHelp(false)
	if err := form.RunWithContext(ctx); err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, errCancelled
	}

	inv, err := menu.Invoke(ctx, command.ID, documentURL, sess)
	if err != nil {
		return nil, err
	}
	a.logger.Infof("%d dates picked for %s", len(inv.Links), inv.Punch)
	return inv.Links, nil
}
