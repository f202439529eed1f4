package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/punch/pkg/bridge"
	"github.com/entrhq/punch/pkg/executor/cli"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		listen  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bridge for the popup and the attendance page menu",
		Long: `Serve exposes the automation to companion surfaces over a local
HTTP server:

  GET  /ws           WebSocket channel for the date picker popup
  GET  /api/dates    selectable date window
  GET  /api/status   whether a run is in progress
  POST /api/remote   single punch request from the attendance page

Only one run is in progress at a time. Stop with Ctrl+C; the run in
progress is cancelled and its window closed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.Server.Listen
			}

			driver, err := a.newDriver()
			if err != nil {
				return err
			}
			defer a.closeDriver(driver)

			progress := cli.NewExecutor(
				cli.WithWriter(cmd.OutOrStdout()),
				cli.WithShowPhases(verbose),
				cli.WithShowCaptures(verbose),
			)
			orch := a.newOrchestrator(driver, progress.Observe)
			srv, err := bridge.New(orch, a.cfg.Server, bridge.WithLogger(a.logger))
			if err != nil {
				return fmt.Errorf("failed to create bridge: %w", err)
			}

			return progress.Run(cmd.Context(), "http://"+listen, func(ctx context.Context) error {
				return srv.ListenAndServe(ctx, listen)
			})
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default from config, 127.0.0.1:8787)")
	cmd.Flags().BoolVar(&verbose, "progress-detail", false, "Print phase transitions and captured responses of every run")

	return cmd
}
