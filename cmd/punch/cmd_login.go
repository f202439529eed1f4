package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/entrhq/punch/pkg/browser"
)

func newLoginCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open the portal sign-in page so the browser profile keeps a session",
		Long: `Login opens a visible window on the portal's sign-in page using the
configured browser profile. Sign in, then confirm in the terminal or close
the window. Later runs reuse the stored session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Browser.Headless {
				a.logger.Infof("login forces a visible window")
			}
			browserCfg := a.cfg.Browser
			browserCfg.Headless = false

			driver, err := browser.NewDriver(browserCfg, a.logger.With("browser"))
			if err != nil {
				return fmt.Errorf("failed to create browser driver: %w", err)
			}
			defer a.closeDriver(driver)

			window, err := driver.Open(cmd.Context(), a.cfg.Portal.LoginURL, browser.WindowOptions{
				Viewport: &browser.Viewport{Width: 1024, Height: 768},
				Title:    "Jobcan sign-in",
			})
			if err != nil {
				return fmt.Errorf("failed to open sign-in window: %w", err)
			}
			defer func() { _ = window.Close(context.Background()) }()

			fmt.Fprintf(cmd.OutOrStdout(), "Sign in at %s in the opened window.\n", a.cfg.Portal.LoginURL)
			return waitForLogin(cmd.Context(), window.Closed(), isTerminal())
		},
	}
	return cmd
}

// waitForLogin returns once the user confirms, the window closes or ctx
// ends. Without a terminal only the latter two apply.
func waitForLogin(ctx context.Context, closed <-chan struct{}, interactive bool) error {
	if !interactive {
		select {
		case <-closed:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	formCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-closed:
			cancel()
		case <-formCtx.Done():
		}
	}()

	done := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Signed in?").
				Affirmative("Done").
				Negative("Abort").
				Value(&done),
		),
	).WithShowHelp(false)

	err := form.RunWithContext(formCtx)
	select {
	case <-closed:
		return nil
	default:
	}
	if err != nil {
		return err
	}
	if !done {
		return errCancelled
	}
	return nil
}
