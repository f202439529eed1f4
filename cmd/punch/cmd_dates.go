package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/punch/pkg/attendance"
)

var weekdayNames = [...]string{"日", "月", "火", "水", "木", "金", "土"}

func newDatesCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dates",
		Short: "Print the dates that can be selected today",
		Long: `Dates prints the selectable window: from the 10th of the current pay
period up to today. Weekend days are marked with an asterisk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			days := attendance.SelectableDates(time.Now())
			if asJSON {
				return writeDatesJSON(cmd.OutOrStdout(), days)
			}
			writeDates(cmd.OutOrStdout(), days)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the window as JSON")

	return cmd
}

type dateEntry struct {
	Index   int    `json:"index"`
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Weekend bool   `json:"weekend"`
}

func writeDates(w io.Writer, days []attendance.Day) {
	if len(days) == 0 {
		fmt.Fprintln(w, "no selectable dates")
		return
	}
	for i, d := range days {
		mark := " "
		if d.Weekend() {
			mark = "*"
		}
		fmt.Fprintf(w, "%2d  %s(%s)%s\n", i, d, weekdayNames[d.Time().Weekday()], mark)
	}
}

func writeDatesJSON(w io.Writer, days []attendance.Day) error {
	entries := make([]dateEntry, len(days))
	for i, d := range days {
		entries[i] = dateEntry{
			Index:   i,
			Date:    d.String(),
			Weekday: d.Time().Weekday().String(),
			Weekend: d.Weekend(),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
