// Package trigger is the single-action surface: a menu of punch commands
// scoped to the portal's attendance list, whose rows are decorated with
// checkboxes so the user can pick the days a command applies to.
package trigger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gobwas/glob"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/browser"
)

// Menu and command identifiers.
const (
	MenuID            = "JobcanAutomator"
	CommandAttendance = MenuID + "@attendance"
	CommandLeave      = MenuID + "@leave"
)

// DocumentPattern scopes the menu to the attendance list.
const DocumentPattern = "https://ssl.jobcan.jp/employee/attendance*"

// Attendance list decoration.
const (
	RowSelector    = "#search-result > table > tbody > tr"
	PickerSelector = "td[data-punch-picker] > input[type=checkbox]"
	LinkAttribute  = "data-href"
	AttendancePath = "/employee/attendance"
)

var (
	// ErrUnknownCommand is returned for a command id not on the menu.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrOutOfScope is returned when the document is not the attendance list.
	ErrOutOfScope = errors.New("document is outside the menu scope")
	// ErrNothingSelected is returned when no row was checked.
	ErrNothingSelected = errors.New("no dates selected")
)

// Command is one menu entry.
type Command struct {
	ID    string
	Title string
	Punch attendance.Punch
}

// Commands are the entries of the menu in display order.
var Commands = []Command{
	{ID: CommandAttendance, Title: "定時出勤", Punch: attendance.ClockIn},
	{ID: CommandLeave, Title: "定時退勤", Punch: attendance.ClockOut},
}

// Menu maps command ids to punches for documents matching its patterns.
type Menu struct {
	ID       string
	Commands []Command
	patterns []glob.Glob
}

// NewMenu creates the menu scoped to patterns, or to DocumentPattern
// when none are given.
func NewMenu(patterns ...string) (*Menu, error) {
	if len(patterns) == 0 {
		patterns = []string{DocumentPattern}
	}

	m := &Menu{ID: MenuID, Commands: Commands}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid document pattern '%s': %w", pattern, err)
		}
		m.patterns = append(m.patterns, g)
	}
	return m, nil
}

// Matches reports whether the menu is offered on documentURL.
func (m *Menu) Matches(documentURL string) bool {
	for _, g := range m.patterns {
		if g.Match(documentURL) {
			return true
		}
	}
	return false
}

// Lookup resolves a command id. Bare names ("attendance", "leave") are
// accepted as well.
func (m *Menu) Lookup(id string) (Command, error) {
	for _, c := range m.Commands {
		if c.ID == id || c.ID == m.ID+"@"+id {
			return c, nil
		}
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, id)
}

// Page is the document the menu acts on. *session.Session satisfies it.
type Page interface {
	Execute(ctx context.Context, op browser.Operation) (browser.Result, error)
}

// Decorate adds a checkbox carrying the edit link to every row of the
// attendance list. Rows already decorated are left alone; the number of
// rows changed is returned.
func Decorate(ctx context.Context, page Page) (int, error) {
	res, err := page.Execute(ctx, browser.InjectDatePickers{RowSelector: RowSelector, Attribute: LinkAttribute})
	if err != nil {
		return 0, fmt.Errorf("failed to decorate attendance list: %w", err)
	}
	return res.Int()
}

// CheckedLinks returns the edit links of the checked rows in list order.
func CheckedLinks(ctx context.Context, page Page) ([]string, error) {
	res, err := page.Execute(ctx, browser.CheckedLinks{Selector: PickerSelector, Attribute: LinkAttribute})
	if err != nil {
		return nil, fmt.Errorf("failed to collect checked dates: %w", err)
	}
	return res.Strings()
}

// Invocation is a command applied to the rows checked at the time.
type Invocation struct {
	Command
	Links []string
}

// Invoke resolves command id on the document at documentURL and collects
// the checked rows of page.
func (m *Menu) Invoke(ctx context.Context, id, documentURL string, page Page) (Invocation, error) {
	cmd, err := m.Lookup(id)
	if err != nil {
		return Invocation{}, err
	}
	if !m.Matches(documentURL) {
		return Invocation{}, fmt.Errorf("%w: %s", ErrOutOfScope, documentURL)
	}

	links, err := CheckedLinks(ctx, page)
	if err != nil {
		return Invocation{}, err
	}
	if len(links) == 0 {
		return Invocation{}, ErrNothingSelected
	}
	return Invocation{Command: cmd, Links: links}, nil
}
